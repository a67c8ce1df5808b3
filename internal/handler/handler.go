// Package handler exposes the read-only operator API. Nothing here mutates
// the graph; all writes go through the mixer's event loop.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"piemixer/internal/service"
)

// StatusProvider supplies the mixer's current view for the API
type StatusProvider interface {
	Status() service.Status
}

// MixerHandler handles mixer API requests
type MixerHandler struct {
	mixer StatusProvider
}

// NewMixerHandler creates a new mixer handler
func NewMixerHandler(mixer StatusProvider) *MixerHandler {
	return &MixerHandler{mixer: mixer}
}

// ErrorResponse is the JSON shape of API errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Routes registers the API routes on the given mux
func (h *MixerHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", h.GetStatus)
	mux.HandleFunc("/api/graph", h.GetGraph)
	mux.HandleFunc("/api/links", h.GetLinks)
	mux.HandleFunc("/healthz", h.GetHealth)
}

// GetStatus returns the full mixer status
func (h *MixerHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", "", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, h.mixer.Status(), http.StatusOK)
}

// GetGraph returns the nodes of the last observed graph snapshot
func (h *MixerHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", "", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, h.mixer.Status().Nodes, http.StatusOK)
}

// GetLinks returns the links the mixer currently owns
func (h *MixerHandler) GetLinks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", "", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, h.mixer.Status().OwnedLinks, http.StatusOK)
}

// GetHealth reports liveness
func (h *MixerHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (h *MixerHandler) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

func (h *MixerHandler) writeError(w http.ResponseWriter, message, details string, status int) {
	h.writeJSON(w, ErrorResponse{Error: message, Details: details}, status)
}
