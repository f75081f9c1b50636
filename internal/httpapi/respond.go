package httpapi

import (
	"encoding/json"
	"net/http"
)

// envelope is the uniform JSON response wrapper.
type envelope struct {
	Status     string      `json:"status"`
	Data       any         `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Field      string      `json:"field,omitempty"`
	Code       string      `json:"code,omitempty"`
	Pagination *pagination `json:"pagination,omitempty"`
	Filters    *filters    `json:"filters,omitempty"`
}

type pagination struct {
	Page    int  `json:"page"`
	Pages   int  `json:"pages"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

type filters struct {
	Category string `json:"category"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Status: "success", Data: data})
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, envelope{Status: "error", Message: message, Code: code})
}

func writeValidationError(w http.ResponseWriter, verr *ValidationError) {
	writeJSON(w, http.StatusBadRequest, envelope{
		Status:  "error",
		Message: verr.Message,
		Field:   verr.Field,
		Code:    verr.Code,
	})
}
