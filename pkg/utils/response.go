package utils

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Error  string      `json:"error"`
	Fields interface{} `json:"fields,omitempty"`
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"failed to encode response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func RespondWithErrorJSON(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithErrorDetails is RespondWithErrorJSON plus a per-field breakdown.
func RespondWithErrorDetails(w http.ResponseWriter, code int, message string, fields interface{}) {
	RespondWithJSON(w, code, ErrorResponse{Error: message, Fields: fields})
}
