package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventregistry/internal/delivery/http/helpers"
	"eventregistry/internal/domain"
)

// StartDraftRequest is the request body for POST /public/events/{eventID}/drafts.
type StartDraftRequest struct {
	ExternalID string `json:"external_id"`
	Nickname   string `json:"nickname,omitempty"`
}

// Validate implements Validator.
func (s StartDraftRequest) Validate() []string {
	if strings.TrimSpace(s.ExternalID) == "" {
		return []string{"external_id is required"}
	}
	return nil
}

// AdvanceDraftRequest is the request body for PATCH /public/drafts/{draftID}.
type AdvanceDraftRequest struct {
	DisplayName    *string `json:"display_name,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Transport      *string `json:"transport,omitempty"`
	TransportModel *string `json:"transport_model,omitempty"`
}

// DraftSuccessResponse is the success envelope for draft responses.
type DraftSuccessResponse struct {
	Data  *domain.RegistrationDraft `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

type DraftController struct {
	Logger  *slog.Logger
	Service domain.DraftService
}

func NewDraftController(logger *slog.Logger, svc domain.DraftService) *DraftController {
	return &DraftController{Logger: logger, Service: svc}
}

// StartDraft godoc
// @Summary Start a step-by-step registration
// @Description Opens a draft that expires if not submitted. data.step names the next field to collect.
// @Tags registrations
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID"
// @Param body body StartDraftRequest true "Who is registering"
// @Success 201 {object} controllers.DraftSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /public/events/{eventID}/drafts [post]
func (c *DraftController) StartDraft(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requirePathID(w, r, "eventID")
	if !ok {
		return
	}
	var req StartDraftRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	d, err := c.Service.Start(r.Context(), eventID, req.ExternalID, req.Nickname)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, d)
}

// AdvanceDraft godoc
// @Summary Fill in draft fields
// @Tags registrations
// @Accept json
// @Produce json
// @Param draftID path string true "Draft ID"
// @Param body body AdvanceDraftRequest true "Fields collected in this step"
// @Success 200 {object} controllers.DraftSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (missing or expired)"
// @Router /public/drafts/{draftID} [patch]
func (c *DraftController) AdvanceDraft(w http.ResponseWriter, r *http.Request) {
	draftID, ok := requirePathID(w, r, "draftID")
	if !ok {
		return
	}
	var req AdvanceDraftRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	d, err := c.Service.Advance(r.Context(), draftID, domain.DraftPatch{
		DisplayName:    req.DisplayName,
		Phone:          req.Phone,
		Transport:      req.Transport,
		TransportModel: req.TransportModel,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, d)
}

// SubmitDraft godoc
// @Summary Submit a completed draft
// @Description Registers the participant from the draft and deletes it.
// @Tags registrations
// @Produce json
// @Param draftID path string true "Draft ID"
// @Success 201 {object} controllers.RegistrantSuccessResponse "registration created"
// @Success 200 {object} controllers.RegistrantSuccessResponse "already registered"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (incomplete draft)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: allocation_exhausted"
// @Router /public/drafts/{draftID}/submit [post]
func (c *DraftController) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	draftID, ok := requirePathID(w, r, "draftID")
	if !ok {
		return
	}
	reg, created, err := c.Service.Submit(r.Context(), draftID)
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

// CancelDraft godoc
// @Summary Cancel a draft
// @Tags registrations
// @Produce json
// @Param draftID path string true "Draft ID"
// @Success 200 {object} helpers.APIResponse "data.status: cancelled"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /public/drafts/{draftID} [delete]
func (c *DraftController) CancelDraft(w http.ResponseWriter, r *http.Request) {
	draftID, ok := requirePathID(w, r, "draftID")
	if !ok {
		return
	}
	if err := c.Service.Cancel(r.Context(), draftID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "cancelled"})
}
