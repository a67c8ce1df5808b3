package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"piemixer/internal/domain"
	"piemixer/internal/service"
)

type fakeMixer struct {
	status service.Status
}

func (f *fakeMixer) Status() service.Status {
	return f.status
}

func newTestServer() (*httptest.Server, *fakeMixer) {
	mixer := &fakeMixer{
		status: service.Status{
			Nodes: []*domain.Node{
				{ID: 40, Description: "SPDIF Receiver", MediaClass: "Audio/Source"},
				{ID: 42, Description: "Analog Stereo", MediaClass: "Audio/Sink"},
			},
			InputIDs: []uint32{40},
			OutputID: 42,
			OwnedLinks: []domain.LinkKey{
				{SourcePort: 88, DestPort: 84},
				{SourcePort: 89, DestPort: 86},
			},
			Passes:   3,
			LastPass: time.Now(),
		},
	}

	mux := http.NewServeMux()
	NewMixerHandler(mixer).Routes(mux)
	return httptest.NewServer(Chain(mux, Recover, Logger)), mixer
}

func TestGetStatus(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var status service.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if status.OutputID != 42 {
		t.Errorf("OutputID = %d, want 42", status.OutputID)
	}
	if len(status.InputIDs) != 1 || status.InputIDs[0] != 40 {
		t.Errorf("InputIDs = %v, want [40]", status.InputIDs)
	}
	if status.Passes != 3 {
		t.Errorf("Passes = %d, want 3", status.Passes)
	}
}

func TestGetGraph(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/graph")
	if err != nil {
		t.Fatalf("GET /api/graph failed: %v", err)
	}
	defer resp.Body.Close()

	var nodes []*domain.Node
	if err := json.NewDecoder(resp.Body).Decode(&nodes); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	if nodes[0].ID != 40 || nodes[1].ID != 42 {
		t.Errorf("node IDs = %d, %d", nodes[0].ID, nodes[1].ID)
	}
}

func TestGetLinks(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/links")
	if err != nil {
		t.Fatalf("GET /api/links failed: %v", err)
	}
	defer resp.Body.Close()

	var links []domain.LinkKey
	if err := json.NewDecoder(resp.Body).Decode(&links); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(links) != 2 {
		t.Errorf("expected 2 links, got %d", len(links))
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/status", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/status failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Error == "" {
		t.Error("expected error message in response")
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	srv := httptest.NewServer(Chain(panicky, Recover))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}
