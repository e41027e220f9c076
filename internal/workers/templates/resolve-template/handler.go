// internal/workers/templates/resolve-template/handler.go
package resolvetemplate

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"template-resolver/internal/common/camunda"
	"template-resolver/internal/common/errors"
	"template-resolver/internal/common/logger"
	"template-resolver/internal/templates"
	"template-resolver/pkg/registry"
)

const TaskType = "resolve-template"

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

// Execute resolves the requested template. A template that resolves nowhere
// is an error unless only existence was asked for.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidInputError("input cannot be nil")
	}

	scope := templates.Scope{TenantDomain: input.TenantDomain, ApplicationID: input.ApplicationID}
	key := templates.TemplateKey{DisplayName: input.DisplayName, Locale: input.Locale, Channel: input.Channel}

	if input.ExistsOnly {
		exists, err := h.templates.TemplateExists(ctx, scope, key)
		if err != nil {
			return nil, err
		}
		return &Output{Found: exists}, nil
	}

	t, err := h.templates.GetTemplate(ctx, scope, key)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("template resolved", map[string]interface{}{
		"tenantDomain": input.TenantDomain,
		"displayName":  input.DisplayName,
		"locale":       input.Locale,
		"channel":      input.Channel,
	})
	return &Output{Found: true, Template: t}, nil
}
