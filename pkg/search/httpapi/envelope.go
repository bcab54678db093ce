package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/Jistoria/document-service/pkg/search/query"
)

// envelope is the common response shape of §6.2: every protected read wraps
// its payload the same way regardless of whether it's a single document, a
// page of documents, or a report.
type envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    *payload `json:"data,omitempty"`
}

type payload struct {
	Count      *int              `json:"count,omitempty"`
	Data       interface{}       `json:"data"`
	Pagination *query.Pagination `json:"pagination,omitempty"`
}

func writeOK(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: &payload{Data: data}})
}

func writeList(w http.ResponseWriter, message string, items interface{}, count int, pagination query.Pagination) {
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: message,
		Data:    &payload{Count: &count, Data: items, Pagination: &pagination},
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
