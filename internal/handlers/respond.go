package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

// envelope is the standard API response wrapper used across handlers.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, envelope{Code: status, Message: message, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	write(w, status, envelope{Code: status, Message: message})
}

func write(w http.ResponseWriter, status int, payload envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("respond: encode payload failed: %v", err)
	}
}
