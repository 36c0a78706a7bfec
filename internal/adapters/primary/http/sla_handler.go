package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opsdeck/helpdesk-backend/internal/adapters/primary/validation"
	"github.com/opsdeck/helpdesk-backend/internal/core/domain"
	"github.com/opsdeck/helpdesk-backend/internal/core/ports"
)

// SLAHandler handles HTTP requests for SLA templates.
type SLAHandler struct {
	slaService   ports.SLAService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewSLAHandler creates a new SLA template handler
func NewSLAHandler(
	slaService ports.SLAService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *SLAHandler {
	return &SLAHandler{
		slaService:   slaService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "sla"),
	}
}

// Router sets up a new chi Router for all SLA template routes.
func (h *SLAHandler) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.HandleListTemplates)
	r.Post("/", h.HandleCreateTemplate)
	r.Patch("/{templateID}", h.HandleUpdateTemplate)
	r.Delete("/{templateID}", h.HandleDeleteTemplate)

	return r
}

// CreateSLATemplateRequest defines the expected JSON body for creating a
// template. Times are in minutes.
type CreateSLATemplateRequest struct {
	Name           string `json:"name"`
	Priority       string `json:"priority"`
	ResponseTime   int    `json:"responseTime"`
	ResolutionTime int    `json:"resolutionTime"`
}

// Validate validates the create template request
func (r *CreateSLATemplateRequest) Validate() error {
	v := validation.NewValidator()

	v.Required("name", r.Name).
		MaxLength("name", r.Name, domain.MaxTitleLength)

	v.Required("priority", r.Priority).
		OneOf("priority", r.Priority, priorities)

	v.Min("responseTime", r.ResponseTime, 1)
	v.Min("resolutionTime", r.ResolutionTime, 1)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateSLATemplateRequest defines a partial template update
type UpdateSLATemplateRequest struct {
	Name           *string `json:"name"`
	Priority       *string `json:"priority"`
	ResponseTime   *int    `json:"responseTime"`
	ResolutionTime *int    `json:"resolutionTime"`
}

// Validate validates the update template request
func (r *UpdateSLATemplateRequest) Validate() error {
	v := validation.NewValidator()

	if r.Name != nil {
		v.Required("name", *r.Name).
			MaxLength("name", *r.Name, domain.MaxTitleLength)
	}
	if r.Priority != nil {
		v.OneOf("priority", *r.Priority, priorities)
	}
	if r.ResponseTime != nil {
		v.Min("responseTime", *r.ResponseTime, 1)
	}
	if r.ResolutionTime != nil {
		v.Min("resolutionTime", *r.ResolutionTime, 1)
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// HandleListTemplates handles GET /sla-templates
func (h *SLAHandler) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.slaService.ListTemplates(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	out := make([]domain.SLATemplateSnapshot, 0, len(templates))
	for _, template := range templates {
		out = append(out, domain.NewSLATemplateSnapshot(template))
	}
	WriteList(w, out)
}

// HandleCreateTemplate handles POST /sla-templates
func (h *SLAHandler) HandleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[CreateSLATemplateRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	template, err := h.slaService.CreateTemplate(r.Context(), ports.CreateSLATemplateParams{
		Name:           req.Name,
		Priority:       domain.Priority(req.Priority),
		ResponseTime:   req.ResponseTime,
		ResolutionTime: req.ResolutionTime,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("sla template created",
		"template_id", template.ID,
		"priority", template.Priority,
	)

	WriteCreated(w, domain.NewSLATemplateSnapshot(template))
}

// HandleUpdateTemplate handles PATCH /sla-templates/{templateID}
func (h *SLAHandler) HandleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	templateID, err := parseUUIDParam(r, "templateID", "Invalid SLA template ID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateSLATemplateRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := ports.UpdateSLATemplateParams{
		TemplateID:     templateID,
		Name:           req.Name,
		ResponseTime:   req.ResponseTime,
		ResolutionTime: req.ResolutionTime,
	}
	if req.Priority != nil {
		priority := domain.Priority(*req.Priority)
		params.Priority = &priority
	}

	template, err := h.slaService.UpdateTemplate(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, domain.NewSLATemplateSnapshot(template))
}

// HandleDeleteTemplate handles DELETE /sla-templates/{templateID}.
// Templates are deactivated, not removed; historical tickets keep their
// SLA reference.
func (h *SLAHandler) HandleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	templateID, err := parseUUIDParam(r, "templateID", "Invalid SLA template ID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := h.slaService.DeleteTemplate(r.Context(), templateID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteNoContent(w)
}
