package handler

import (
	"net/http"
)

// HealthHandler answers liveness probes.
type HealthHandler struct {
	message string
}

func NewHealthHandler(message string) *HealthHandler {
	if message == "" {
		message = "ping"
	}
	return &HealthHandler{message: message}
}

func (h *HealthHandler) Ping(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: h.message})
}
