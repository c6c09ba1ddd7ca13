package controllers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"eventregistry/internal/delivery/http/helpers"
	"eventregistry/internal/domain"
)

// NextNumberResponse is the data payload for GET /events/{eventID}/numbers/next.
type NextNumberResponse struct {
	EventID string `json:"event_id"`
	Number  int    `json:"number"`
}

// ReservedNumbersRequest is the request body for adding or removing reserved numbers.
type ReservedNumbersRequest struct {
	Numbers []int `json:"numbers"`
}

// Validate implements Validator.
func (req ReservedNumbersRequest) Validate() []string {
	if len(req.Numbers) == 0 {
		return []string{"numbers is required"}
	}
	return nil
}

// ReservedNumbersResponse is the data payload for reserved-number endpoints.
type ReservedNumbersResponse struct {
	EventID string `json:"event_id"`
	Numbers []int  `json:"numbers"`
}

// FixedNumberRequest is the request body for creating or previewing a fixed binding.
type FixedNumberRequest struct {
	Nickname string `json:"nickname"`
	Number   int    `json:"number"`
}

// Validate implements Validator.
func (req FixedNumberRequest) Validate() []string {
	var errs []string
	if domain.NormalizeNickname(req.Nickname) == "" {
		errs = append(errs, "nickname is required")
	}
	if req.Number < 1 || req.Number > domain.MaxFixedNumber {
		errs = append(errs, "number must be between 1 and 999")
	}
	return errs
}

// BindingOutcomeResponse is the success envelope for fixed-binding create and preview.
type BindingOutcomeResponse struct {
	Data  *domain.BindingOutcome `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

type NumberController struct {
	Logger   *slog.Logger
	Pool     domain.NumberPoolService
	Reserved domain.ReservedNumberService
	Fixed    domain.FixedNumberService
}

func NewNumberController(logger *slog.Logger, pool domain.NumberPoolService, reserved domain.ReservedNumberService, fixed domain.FixedNumberService) *NumberController {
	return &NumberController{Logger: logger, Pool: pool, Reserved: reserved, Fixed: fixed}
}

// NextAvailable godoc
// @Summary Next free participant number
// @Description The number the next dynamic registration would get. Read-only; a concurrent registration may take it first.
// @Tags numbers
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains event_id and number"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: allocation_exhausted"
// @Router /events/{eventID}/numbers/next [get]
func (c *NumberController) NextAvailable(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requirePathID(w, r, "eventID")
	if !ok {
		return
	}
	n, err := c.Pool.NextAvailable(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, NextNumberResponse{EventID: eventID, Number: n})
}

// ListReserved godoc
// @Summary List reserved numbers
// @Tags numbers
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains event_id and numbers"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/reserved-numbers [get]
func (c *NumberController) ListReserved(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requirePathID(w, r, "eventID")
	if !ok {
		return
	}
	numbers, err := c.Reserved.List(r.Context(), eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ReservedNumbersResponse{EventID: eventID, Numbers: numbers})
}

// AddReserved godoc
// @Summary Reserve numbers
// @Description Keeps numbers out of automatic assignment. Registrants already holding them keep them. The whole batch is rejected if any number is out of range.
// @Tags numbers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body ReservedNumbersRequest true "Numbers to reserve"
// @Success 200 {object} helpers.APIResponse "data contains the full reserved set"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/reserved-numbers [post]
func (c *NumberController) AddReserved(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requirePathID(w, r, "eventID")
	if !ok {
		return
	}
	var req ReservedNumbersRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	numbers, err := c.Reserved.Add(r.Context(), eventID, req.Numbers)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ReservedNumbersResponse{EventID: eventID, Numbers: numbers})
}

// RemoveReserved godoc
// @Summary Release reserved numbers
// @Tags numbers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body ReservedNumbersRequest true "Numbers to release"
// @Success 200 {object} helpers.APIResponse "data contains the remaining reserved set"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/reserved-numbers [delete]
func (c *NumberController) RemoveReserved(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requirePathID(w, r, "eventID")
	if !ok {
		return
	}
	var req ReservedNumbersRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	numbers, err := c.Reserved.Remove(r.Context(), eventID, req.Numbers)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ReservedNumbersResponse{EventID: eventID, Numbers: numbers})
}

// ListFixed godoc
// @Summary List fixed bindings
// @Description All nickname-to-number bindings ordered by number. With nickname or number the result is the single matching binding.
// @Tags fixed-numbers
// @Produce json
// @Security BearerAuth
// @Param nickname query string false "Look up by nickname"
// @Param number query int false "Look up by number"
// @Success 200 {object} helpers.APIResponse "data contains bindings"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /fixed-numbers [get]
func (c *NumberController) ListFixed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if nickname := strings.TrimSpace(q.Get("nickname")); nickname != "" {
		c.writeLookup(w, r, func() (*domain.FixedNumber, error) {
			return c.Fixed.LookupByNickname(r.Context(), nickname)
		})
		return
	}
	if s := q.Get("number"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "number must be an integer")
			return
		}
		c.writeLookup(w, r, func() (*domain.FixedNumber, error) {
			return c.Fixed.LookupByNumber(r.Context(), n)
		})
		return
	}
	list, err := c.Fixed.List(r.Context())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, list)
}

func (c *NumberController) writeLookup(w http.ResponseWriter, r *http.Request, lookup func() (*domain.FixedNumber, error)) {
	f, err := lookup()
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, []*domain.FixedNumber{f})
}

// CreateFixed godoc
// @Summary Bind a nickname to a number
// @Description Creates a global binding. In every event, whoever else holds the number is moved to the lowest free number and every active registrant with the nickname is moved onto it. All-or-nothing.
// @Tags fixed-numbers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body FixedNumberRequest true "Binding"
// @Success 201 {object} controllers.BindingOutcomeResponse "binding with evictions and reassignments"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: duplicate_identifier, duplicate_number or allocation_exhausted"
// @Router /fixed-numbers [post]
func (c *NumberController) CreateFixed(w http.ResponseWriter, r *http.Request) {
	var req FixedNumberRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	outcome, err := c.Fixed.Create(r.Context(), req.Nickname, req.Number)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, outcome)
}

// PreviewFixed godoc
// @Summary Preview a binding
// @Description Reports the evictions and reassignments a binding would cause without saving anything.
// @Tags fixed-numbers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body FixedNumberRequest true "Binding"
// @Success 200 {object} controllers.BindingOutcomeResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: duplicate_identifier, duplicate_number or allocation_exhausted"
// @Router /fixed-numbers/preview [post]
func (c *NumberController) PreviewFixed(w http.ResponseWriter, r *http.Request) {
	var req FixedNumberRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	outcome, err := c.Fixed.Preview(r.Context(), req.Nickname, req.Number)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, outcome)
}

// DeleteFixed godoc
// @Summary Remove a binding
// @Description Registrants keep the numbers they hold.
// @Tags fixed-numbers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Binding ID"
// @Success 200 {object} helpers.APIResponse "data.status: deleted"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /fixed-numbers/{id} [delete]
func (c *NumberController) DeleteFixed(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathID(w, r, "id")
	if !ok {
		return
	}
	if err := c.Fixed.Delete(r.Context(), id); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "deleted"})
}
