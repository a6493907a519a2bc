package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"rooster/native/custody"
)

type errorResponse struct {
	Error   string  `json:"error"`
	Message string  `json:"message"`
	Code    *uint32 `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSONError(w, http.StatusBadRequest, "bad_request", err)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeJSONError(w, http.StatusInternalServerError, "internal", err)
}

// writeJSONError renders err. Custody errors carry their numeric code so
// callers can match them against on-ledger failures.
func writeJSONError(w http.ResponseWriter, status int, kind string, err error) {
	message := http.StatusText(status)
	if err != nil && strings.TrimSpace(err.Error()) != "" {
		message = strings.TrimSpace(err.Error())
	}
	resp := errorResponse{Error: kind, Message: message}
	var custodyErr *custody.Error
	if errors.As(err, &custodyErr) {
		code := custodyErr.Code
		resp.Code = &code
	}
	writeJSON(w, status, resp)
}
