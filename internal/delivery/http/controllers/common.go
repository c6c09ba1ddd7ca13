package controllers

import (
	"net/http"
	"strconv"

	"eventregistry/internal/delivery/http/helpers"

	"github.com/google/uuid"
)

// requirePathID reads a UUID path value. On a missing or malformed value it writes 400 and returns false.
func requirePathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue(name)
	if id == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing "+name)
		return "", false
	}
	if err := uuid.Validate(id); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid "+name)
		return "", false
	}
	return id, true
}

// queryBool reads a boolean query parameter, false when absent or malformed.
func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
