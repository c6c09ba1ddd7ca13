package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventregistry/internal/delivery/http/helpers"
	"eventregistry/internal/domain"
)

// RegisterRequest is the request body for creating a registration.
type RegisterRequest struct {
	ExternalID     string  `json:"external_id"`
	Nickname       string  `json:"nickname,omitempty"`
	DisplayName    string  `json:"display_name"`
	Phone          string  `json:"phone,omitempty"`
	Transport      string  `json:"transport"`
	TransportModel *string `json:"transport_model,omitempty"`
}

// Validate implements Validator.
func (c RegisterRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.ExternalID) == "" {
		errs = append(errs, "external_id is required")
	}
	if strings.TrimSpace(c.DisplayName) == "" {
		errs = append(errs, "display_name is required")
	}
	if strings.TrimSpace(c.Transport) == "" {
		errs = append(errs, "transport is required")
	}
	return errs
}

func (c RegisterRequest) input() domain.RegistrantInput {
	return domain.RegistrantInput{
		ExternalID:     c.ExternalID,
		Nickname:       c.Nickname,
		DisplayName:    c.DisplayName,
		Phone:          c.Phone,
		Transport:      c.Transport,
		TransportModel: c.TransportModel,
	}
}

// UpdateRegistrantRequest is the request body for PATCH /registrants/{registrantID}.
type UpdateRegistrantRequest struct {
	Nickname       *string `json:"nickname,omitempty"`
	DisplayName    *string `json:"display_name,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Transport      *string `json:"transport,omitempty"`
	TransportModel *string `json:"transport_model,omitempty"`
	IsActive       *bool   `json:"is_active,omitempty"`
}

// Validate implements Validator.
func (u UpdateRegistrantRequest) Validate() []string {
	var errs []string
	if u.DisplayName != nil && strings.TrimSpace(*u.DisplayName) == "" {
		errs = append(errs, "display_name cannot be empty")
	}
	if u.Transport != nil && strings.TrimSpace(*u.Transport) == "" {
		errs = append(errs, "transport cannot be empty")
	}
	return errs
}

// RegistrantSuccessResponse is the success envelope for single-registrant responses.
type RegistrantSuccessResponse struct {
	Data  *domain.Registrant `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// ListRegistrantsResponse is the data payload for GET /events/{eventID}/registrants.
type ListRegistrantsResponse struct {
	Items      []*domain.Registrant   `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

type RegistrantController struct {
	Logger  *slog.Logger
	Service domain.RegistrantService
}

func NewRegistrantController(logger *slog.Logger, svc domain.RegistrantService) *RegistrantController {
	return &RegistrantController{Logger: logger, Service: svc}
}

// Register godoc
// @Summary Register for an event
// @Description Registers a participant and assigns a number: the fixed number bound to the nickname, else the lowest free one. Re-registering an active external_id returns the existing registration with 200.
// @Tags registrations
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID"
// @Param body body RegisterRequest true "Registration"
// @Success 201 {object} controllers.RegistrantSuccessResponse "registration created or reactivated"
// @Success 200 {object} controllers.RegistrantSuccessResponse "already registered"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: allocation_exhausted or conflict (nickname already used in the event)"
// @Router /public/events/{eventID}/registrations [post]
func (c *RegistrantController) Register(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requirePathID(w, r, "eventID")
	if !ok {
		return
	}
	var req RegisterRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	reg, created, err := c.Service.Register(r.Context(), eventID, req.input())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	helpers.WriteJSONSuccess(w, status, reg)
}

// ListRegistrants godoc
// @Summary List registrants of an event
// @Description Ordered by participant number. Inactive registrants are hidden unless include_inactive=true.
// @Tags registrants
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param include_inactive query bool false "Include deactivated registrations"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains items and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/registrants [get]
func (c *RegistrantController) ListRegistrants(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requirePathID(w, r, "eventID")
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	filter := domain.RegistrantFilter{IncludeInactive: queryBool(r, "include_inactive")}
	list, total, err := c.Service.ListByEvent(r.Context(), eventID, filter, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListRegistrantsResponse{
		Items:      list,
		Pagination: helpers.NewPaginationMeta(params, total),
	})
}

// GetRegistrant godoc
// @Summary Get a registrant
// @Tags registrants
// @Produce json
// @Security BearerAuth
// @Param registrantID path string true "Registrant ID"
// @Success 200 {object} controllers.RegistrantSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /registrants/{registrantID} [get]
func (c *RegistrantController) GetRegistrant(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathID(w, r, "registrantID")
	if !ok {
		return
	}
	reg, err := c.Service.Get(r.Context(), id)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reg)
}

// UpdateRegistrant godoc
// @Summary Update a registrant
// @Description Partial update. Changing the nickname re-resolves the number; setting is_active=true reactivates and re-validates the stored number.
// @Tags registrants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param registrantID path string true "Registrant ID"
// @Param body body UpdateRegistrantRequest true "Fields to change"
// @Success 200 {object} controllers.RegistrantSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: allocation_exhausted or conflict (nickname already used in the event)"
// @Router /registrants/{registrantID} [patch]
func (c *RegistrantController) UpdateRegistrant(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathID(w, r, "registrantID")
	if !ok {
		return
	}
	var req UpdateRegistrantRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	reg, err := c.Service.Update(r.Context(), id, domain.RegistrantPatch{
		Nickname:       req.Nickname,
		DisplayName:    req.DisplayName,
		Phone:          req.Phone,
		Transport:      req.Transport,
		TransportModel: req.TransportModel,
		IsActive:       req.IsActive,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reg)
}

// DeactivateRegistrant godoc
// @Summary Deactivate a registrant
// @Description Soft delete: the registration stays but its number is free for others.
// @Tags registrants
// @Produce json
// @Security BearerAuth
// @Param registrantID path string true "Registrant ID"
// @Success 200 {object} controllers.RegistrantSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /registrants/{registrantID}/deactivate [post]
func (c *RegistrantController) DeactivateRegistrant(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathID(w, r, "registrantID")
	if !ok {
		return
	}
	reg, err := c.Service.Deactivate(r.Context(), id)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reg)
}

// DeleteRegistrant godoc
// @Summary Delete a registrant
// @Tags registrants
// @Produce json
// @Security BearerAuth
// @Param registrantID path string true "Registrant ID"
// @Success 200 {object} helpers.APIResponse "data.status: deleted"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /registrants/{registrantID} [delete]
func (c *RegistrantController) DeleteRegistrant(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathID(w, r, "registrantID")
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), id); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "deleted"})
}
