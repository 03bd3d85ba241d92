package participant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"vendor-chat/internal/errs"
)

type Handler struct {
	svc *Service
	log zerolog.Logger
}

func NewHandler(svc *Service, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) RegisterVendor(w http.ResponseWriter, r *http.Request) {
	var req RegisterVendorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	v, err := h.svc.RegisterVendor(r.Context(), &req)
	if err != nil {
		if errs.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("vendor registration failed")
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, v)
}

func (h *Handler) LoginVendor(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.svc.LoginVendor)
}

func (h *Handler) LoginAgent(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.svc.LoginAgent)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, req *LoginRequest) (*LoginResponse, error)) {

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	res, err := fn(r.Context(), &req)
	if err != nil {
		if errs.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) DefaultAgent(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.DefaultAgent(r.Context())
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no agent found")
			return
		}
		h.log.Error().Err(err).Msg("default agent lookup failed")
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) ListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.svc.ListVendors(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("vendor list failed")
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, vendors)
}

func (h *Handler) VendorInfo(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("vendorId")
	if id == "" {
		writeError(w, http.StatusBadRequest, "vendorId is required")
		return
	}

	info, err := h.svc.VendorInfo(r.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			writeError(w, http.StatusNotFound, "vendor not found")
			return
		}
		h.log.Error().Err(err).Msg("vendor info lookup failed")
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
