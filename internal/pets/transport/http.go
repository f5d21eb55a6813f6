package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/petmint/petmint/internal/pets/domain"
)

// Handler handles HTTP requests for pets.
type Handler struct {
	svc domain.Service
}

// NewHandler creates a new pets HTTP handler.
func NewHandler(svc domain.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers all pet routes on a chi router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.Get("/owner/{owner}", h.handleListByOwner)
	r.Post("/", h.handleCreate)
	r.Post("/merge", h.handleMerge)
	r.Post("/delete", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	pets, err := h.svc.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromDomainList(pets))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	pet, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromDomain(pet))
}

func (h *Handler) handleListByOwner(w http.ResponseWriter, r *http.Request) {
	pets, err := h.svc.ListByOwner(r.Context(), chi.URLParam(r, "owner"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromDomainList(pets))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON")
		return
	}

	pet, err := h.svc.Create(r.Context(), req.ToDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, FromDomain(pet))
}

func (h *Handler) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON")
		return
	}

	pet, err := h.svc.Merge(r.Context(), req.ToDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromDomain(pet))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON")
		return
	}

	if err := h.svc.Delete(r.Context(), req.ToDomain()); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeDomainError maps domain errors onto HTTP statuses and stable codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		writeError(w, http.StatusUnprocessableEntity, "INVALID_REQUEST", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, domain.ErrSamePet):
		writeError(w, http.StatusConflict, "SAME_PET", err.Error())
	case errors.Is(err, domain.ErrMergeExhausted):
		writeError(w, http.StatusConflict, "MERGE_EXHAUSTED", err.Error())
	case errors.Is(err, domain.ErrPaymentUnverified):
		writeError(w, http.StatusPaymentRequired, "PAYMENT_UNVERIFIED", err.Error())
	case errors.Is(err, domain.ErrTxSpent):
		writeError(w, http.StatusConflict, "TX_ALREADY_USED", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, domain.ErrLedgerUnavailable):
		writeError(w, http.StatusServiceUnavailable, "LEDGER_UNAVAILABLE", "Ledger node is unreachable, try again later")
	case errors.Is(err, domain.ErrPaymentNotRecorded):
		writeError(w, http.StatusInternalServerError, "PAYMENT_NOT_RECORDED", "Payment was verified but the pet could not be recorded, contact support")
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
