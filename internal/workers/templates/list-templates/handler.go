// internal/workers/templates/list-templates/handler.go
package listtemplates

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"template-resolver/internal/common/camunda"
	"template-resolver/internal/common/errors"
	"template-resolver/internal/common/logger"
	"template-resolver/internal/models"
	"template-resolver/internal/templates"
	"template-resolver/pkg/registry"
)

const TaskType = "list-templates"

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

	var (
		list []models.NotificationTemplate
		err  error
	)
	if input.TemplateType != "" {
		scope := templates.Scope{TenantDomain: input.TenantDomain, ApplicationID: input.ApplicationID}
		list, err = h.templates.ListTemplates(ctx, scope, templates.TypeKey{DisplayName: input.TemplateType, Channel: input.Channel})
	} else {
		list, err = h.templates.ListAllTemplates(ctx, input.TenantDomain, input.Channel)
	}
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.NotificationTemplate{}
	}

	h.logger.Debug("templates listed", map[string]interface{}{
		"tenantDomain": input.TenantDomain,
		"templateType": input.TemplateType,
		"channel":      input.Channel,
		"count":        len(list),
	})
	return &Output{Templates: list, Count: len(list)}, nil
}
