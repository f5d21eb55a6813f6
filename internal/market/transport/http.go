package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/petmint/petmint/internal/market/domain"
)

// Handler handles HTTP requests for the market.
type Handler struct {
	svc domain.Service
}

// NewHandler creates a new market HTTP handler.
func NewHandler(svc domain.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers all market routes on a chi router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleListings)
	r.Post("/list", h.handleList)
	r.Post("/buy", h.handleBuy)
	r.Post("/remove", h.handleDelist)
}

func (h *Handler) handleListings(w http.ResponseWriter, r *http.Request) {
	pets, err := h.svc.Listings(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromDomainList(pets))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var req ListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON")
		return
	}

	pet, err := h.svc.List(r.Context(), req.ToDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromDomain(pet))
}

func (h *Handler) handleDelist(w http.ResponseWriter, r *http.Request) {
	var req DelistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON")
		return
	}

	pet, err := h.svc.Delist(r.Context(), req.ToDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromDomain(pet))
}

func (h *Handler) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req BuyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON")
		return
	}

	pet, err := h.svc.Buy(r.Context(), req.ToDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromDomain(pet))
}

// writeDomainError maps domain errors onto HTTP statuses and stable codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		writeError(w, http.StatusUnprocessableEntity, "INVALID_REQUEST", err.Error())
	case errors.Is(err, domain.ErrInvalidPrice):
		writeError(w, http.StatusUnprocessableEntity, "INVALID_PRICE", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, domain.ErrNotForSale):
		writeError(w, http.StatusConflict, "NOT_FOR_SALE", err.Error())
	case errors.Is(err, domain.ErrSelfPurchase):
		writeError(w, http.StatusConflict, "SELF_PURCHASE", err.Error())
	case errors.Is(err, domain.ErrPaymentUnverified):
		writeError(w, http.StatusPaymentRequired, "PAYMENT_UNVERIFIED", err.Error())
	case errors.Is(err, domain.ErrTxSpent):
		writeError(w, http.StatusConflict, "TX_ALREADY_USED", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, domain.ErrLedgerUnavailable):
		writeError(w, http.StatusServiceUnavailable, "LEDGER_UNAVAILABLE", "Ledger node is unreachable, try again later")
	case errors.Is(err, domain.ErrPaymentNotRecorded):
		writeError(w, http.StatusInternalServerError, "PAYMENT_NOT_RECORDED", "Payment was verified but the transfer could not be recorded, contact support")
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
