// internal/workers/templates/upsert-template/handler.go
package upserttemplate

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"template-resolver/internal/common/camunda"
	"template-resolver/internal/common/errors"
	"template-resolver/internal/common/logger"
	"template-resolver/internal/models"
	"template-resolver/internal/templates"
	"template-resolver/pkg/registry"
)

const TaskType = "upsert-template"

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

	typ, addType := typeToAdd(input)
	if !addType && input.Template == nil {
		return nil, errors.NewInvalidInputError("either template or templateType is required")
	}
	if input.AddType && !addType {
		return nil, errors.NewInvalidInputError("addType requires templateType or template")
	}

	output := &Output{RequestID: uuid.NewString()}
	fields := map[string]interface{}{
		"requestId":     output.RequestID,
		"tenantDomain":  input.TenantDomain,
		"applicationId": input.ApplicationID,
	}

	if addType {
		if err := h.templates.AddTemplateType(ctx, input.TenantDomain, typ); err != nil {
			return nil, err
		}
		output.TypeAdded = true
		fields["templateType"] = typ.DisplayName
	}

	if input.Template != nil {
		if !addType {
			if err := h.requireType(ctx, input.TenantDomain, templates.KeyOf(input.Template).Type()); err != nil {
				return nil, err
			}
		}
		scope := templates.Scope{TenantDomain: input.TenantDomain, ApplicationID: input.ApplicationID}
		outcome, err := h.save(ctx, scope, input.Template)
		if err != nil {
			return nil, err
		}
		output.Saved = outcome == templates.SaveStored
		output.Outcome = string(outcome)
		fields["displayName"] = input.Template.DisplayName
		fields["locale"] = input.Template.Locale
		fields["outcome"] = output.Outcome
	}

	h.logger.Info("template saved", fields)
	return output, nil
}

// save reports the outcome when the store can tell it; a plain store always
// keeps what it is given.
func (h *Handler) save(ctx context.Context, scope templates.Scope, t *models.NotificationTemplate) (templates.SaveOutcome, error) {
	if saver, ok := h.templates.(templates.Saver); ok {
		return saver.SaveTemplate(ctx, scope, t)
	}
	if err := h.templates.AddOrUpdateTemplate(ctx, scope, t); err != nil {
		return "", err
	}
	return templates.SaveStored, nil
}

// requireType rejects templates saved into a type the tenant cannot see.
func (h *Handler) requireType(ctx context.Context, tenantDomain string, typ templates.TypeKey) error {
	exists, err := h.templates.TemplateTypeExists(ctx, tenantDomain, typ)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NewTemplateTypeNotFoundError(typ.DisplayName, typ.Channel)
	}
	return nil
}

func typeToAdd(input *Input) (templates.TypeKey, bool) {
	switch {
	case input.TemplateType != nil:
		return templates.TypeKey{DisplayName: input.TemplateType.DisplayName, Channel: input.TemplateType.Channel}, true
	case input.AddType && input.Template != nil:
		return templates.KeyOf(input.Template).Type(), true
	default:
		return templates.TypeKey{}, false
	}
}
