package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eventregistry/internal/delivery/http/helpers"
	"eventregistry/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	eventID      = "8a6e0804-2bd0-4672-b79d-d97027f9071a"
	registrantID = "4f1e5d3c-9b77-4c2a-8f3e-1d2c3b4a5f60"
	bindingID    = "c0ffee00-1234-4abc-9def-0123456789ab"
	draftID      = "d7a1b2c3-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
)

// serve mounts handler on pattern and runs one request through a ServeMux so path values resolve.
func serve(t *testing.T, pattern string, handler http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

// envelope decodes the response; data is left raw for the caller.
type envelope struct {
	Data  json.RawMessage   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, dest any) {
	t.Helper()
	env := decode(t, rr)
	require.Nil(t, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func intPtr(n int) *int { return &n }

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	err        error
	event      *domain.Event
	events     []*domain.Event
	total      int
	lastCreate *domain.Event
	lastID     string
	lastPatch  domain.EventPatch
	lastParams domain.PaginationParams
}

func (f *fakeEventService) CreateEvent(ctx context.Context, e *domain.Event) error {
	f.lastCreate = e
	if f.err != nil {
		return f.err
	}
	e.ID = eventID
	return nil
}

func (f *fakeEventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	f.lastID = id
	return f.event, f.err
}

func (f *fakeEventService) ListEvents(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.lastParams = params
	return f.events, f.total, f.err
}

func (f *fakeEventService) UpdateEvent(ctx context.Context, id string, patch domain.EventPatch) (*domain.Event, error) {
	f.lastID, f.lastPatch = id, patch
	return f.event, f.err
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, id string) error {
	f.lastID = id
	return f.err
}

// fakeRegistrantService implements domain.RegistrantService for handler tests.
type fakeRegistrantService struct {
	err        error
	reg        *domain.Registrant
	created    bool
	list       []*domain.Registrant
	total      int
	lastInput  domain.RegistrantInput
	lastPatch  domain.RegistrantPatch
	lastFilter domain.RegistrantFilter
	lastID     string
}

func (f *fakeRegistrantService) Register(ctx context.Context, eventID string, in domain.RegistrantInput) (*domain.Registrant, bool, error) {
	f.lastID, f.lastInput = eventID, in
	return f.reg, f.created, f.err
}

func (f *fakeRegistrantService) Update(ctx context.Context, id string, patch domain.RegistrantPatch) (*domain.Registrant, error) {
	f.lastID, f.lastPatch = id, patch
	return f.reg, f.err
}

func (f *fakeRegistrantService) Deactivate(ctx context.Context, id string) (*domain.Registrant, error) {
	f.lastID = id
	return f.reg, f.err
}

func (f *fakeRegistrantService) Delete(ctx context.Context, id string) error {
	f.lastID = id
	return f.err
}

func (f *fakeRegistrantService) Get(ctx context.Context, id string) (*domain.Registrant, error) {
	f.lastID = id
	return f.reg, f.err
}

func (f *fakeRegistrantService) ListByEvent(ctx context.Context, eventID string, filter domain.RegistrantFilter, params domain.PaginationParams) ([]*domain.Registrant, int, error) {
	f.lastID, f.lastFilter = eventID, filter
	return f.list, f.total, f.err
}

// fakeNumbers implements the pool, reserved and fixed services for handler tests.
type fakeNumbers struct {
	err          error
	next         int
	reserved     []int
	outcome      *domain.BindingOutcome
	binding      *domain.FixedNumber
	bindings     []*domain.FixedNumber
	lastNumbers  []int
	lastNickname string
	lastNumber   int
	lastID       string
}

func (f *fakeNumbers) NextAvailable(ctx context.Context, eventID string) (int, error) {
	return f.next, f.err
}

func (f *fakeNumbers) Add(ctx context.Context, eventID string, numbers []int) ([]int, error) {
	f.lastNumbers = numbers
	return f.reserved, f.err
}

func (f *fakeNumbers) Remove(ctx context.Context, eventID string, numbers []int) ([]int, error) {
	f.lastNumbers = numbers
	return f.reserved, f.err
}

func (f *fakeNumbers) List(ctx context.Context, eventID string) ([]int, error) {
	return f.reserved, f.err
}

// fakeFixed adapts fakeNumbers to domain.FixedNumberService, whose List has another signature.
type fakeFixed struct{ *fakeNumbers }

func (f fakeFixed) Create(ctx context.Context, nickname string, number int) (*domain.BindingOutcome, error) {
	f.lastNickname, f.lastNumber = nickname, number
	return f.outcome, f.err
}

func (f fakeFixed) Preview(ctx context.Context, nickname string, number int) (*domain.BindingOutcome, error) {
	f.lastNickname, f.lastNumber = nickname, number
	return f.outcome, f.err
}

func (f fakeFixed) Delete(ctx context.Context, id string) error {
	f.lastID = id
	return f.err
}

func (f fakeFixed) List(ctx context.Context) ([]*domain.FixedNumber, error) {
	return f.bindings, f.err
}

func (f fakeFixed) LookupByNickname(ctx context.Context, nickname string) (*domain.FixedNumber, error) {
	f.lastNickname = nickname
	return f.binding, f.err
}

func (f fakeFixed) LookupByNumber(ctx context.Context, number int) (*domain.FixedNumber, error) {
	f.lastNumber = number
	return f.binding, f.err
}

func newNumberController(f *fakeNumbers) *NumberController {
	return NewNumberController(testLogger, f, f, fakeFixed{f})
}
