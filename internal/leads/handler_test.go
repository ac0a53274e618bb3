package leads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/blueflare-energy/leadcapture/pkg/logging"
)

func newLeadRouter(repo Repository) http.Handler {
	h := NewHandler(repo, logging.New("error"))
	r := chi.NewRouter()
	r.Get("/admin/leads/{leadID}", h.GetLead)
	return r
}

func TestGetLead_Success(t *testing.T) {
	repo := NewInMemoryRepository()
	lead, err := repo.Create(context.Background(), &CreateLeadRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@x.com",
		Message:   "Hello there, interested.",
		IPAddress: "203.0.113.7",
	})
	if err != nil {
		t.Fatalf("seed lead: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/leads/"+lead.ID, nil)
	w := httptest.NewRecorder()
	newLeadRouter(repo).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var got Lead
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID != lead.ID || got.Email != "jane@x.com" || got.IPAddress != "203.0.113.7" {
		t.Fatalf("unexpected lead %+v", got)
	}
}

func TestGetLead_NotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/leads/missing", nil)
	w := httptest.NewRecorder()
	newLeadRouter(NewInMemoryRepository()).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

type failingRepository struct{}

func (failingRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	return nil, errors.New("db down")
}

func (failingRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	return nil, errors.New("db down")
}

func TestGetLead_RepositoryError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/leads/abc", nil)
	w := httptest.NewRecorder()
	newLeadRouter(failingRepository{}).ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	if body := w.Body.String(); !json.Valid([]byte(body)) {
		t.Fatalf("expected JSON error body, got %q", body)
	}
}
