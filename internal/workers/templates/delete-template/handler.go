// internal/workers/templates/delete-template/handler.go
package deletetemplate

import (
	"context"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"template-resolver/internal/common/camunda"
	"template-resolver/internal/common/errors"
	"template-resolver/internal/common/logger"
	"template-resolver/internal/templates"
	"template-resolver/pkg/registry"
)

const TaskType = "delete-template"

type Handler struct {
	config     *Config
	templates  templates.Store
	schema     map[string]interface{}
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, store templates.Store, reg *registry.ActivityRegistry, errHandler *errors.ErrorHandler, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		templates:  store,
		schema:     reg.InputSchema(TaskType),
		errHandler: errHandler,
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := camunda.DecodeVariables(job, h.schema, &input); err != nil {
		h.errHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return err
	}
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidInputError("input cannot be nil")
	}

	scope := templates.Scope{TenantDomain: input.TenantDomain, ApplicationID: input.ApplicationID}
	typ := templates.TypeKey{DisplayName: input.DisplayName, Channel: input.Channel}

	var err error
	switch input.Scope {
	case ScopeTemplate:
		if input.Locale == "" {
			return nil, errors.NewInvalidInputError("locale is required to delete a single template")
		}
		err = h.templates.DeleteTemplate(ctx, scope, templates.TemplateKey{
			DisplayName: input.DisplayName,
			Locale:      input.Locale,
			Channel:     input.Channel,
		})
	case ScopeTemplatesOfType:
		err = h.templates.DeleteTemplatesOfType(ctx, scope, typ)
	case ScopeAllOfType:
		err = h.templates.DeleteAllTemplatesOfType(ctx, input.TenantDomain, typ)
	case ScopeType:
		err = h.templates.DeleteTemplateType(ctx, input.TenantDomain, typ)
	default:
		return nil, errors.NewInvalidInputError(fmt.Sprintf("unknown delete scope %q", input.Scope))
	}
	if err != nil {
		return nil, err
	}

	output := &Output{Deleted: true, Scope: input.Scope, RequestID: uuid.NewString()}
	h.logger.Info("templates deleted", map[string]interface{}{
		"requestId":     output.RequestID,
		"tenantDomain":  input.TenantDomain,
		"applicationId": input.ApplicationID,
		"scope":         input.Scope,
		"displayName":   input.DisplayName,
		"locale":        input.Locale,
		"channel":       input.Channel,
	})
	return output, nil
}
