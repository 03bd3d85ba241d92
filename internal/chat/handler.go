package chat

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"vendor-chat/internal/errs"
	mw "vendor-chat/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for now (Dev mode)
	},
}

type Handler struct {
	svc *Service
	log zerolog.Logger
}

func NewHandler(svc *Service, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// ServeWs upgrades an authenticated request to a websocket and starts the
// client pumps. Room joining happens afterwards via the joinRoom event.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	id, name, party, ok := identityFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(h.svc, conn, id, name, party, h.log)
	client.Run()
}

// GetConversation serves GET /conversation/messages?vendorId&agentId.
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	vendorID := r.URL.Query().Get("vendorId")
	agentID := r.URL.Query().Get("agentId")
	if vendorID == "" || agentID == "" {
		writeError(w, http.StatusBadRequest, "vendorId and agentId are required")
		return
	}

	messages, err := h.svc.History(r.Context(), vendorID, agentID)
	if err != nil {
		h.log.Error().Err(err).Msg("history fetch failed")
		writeError(w, http.StatusServiceUnavailable, "could not load messages, try again")
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

type postMessageRequest struct {
	Receiver string `json:"receiver"`
	Text     string `json:"text"`
}

// PostMessage serves POST /conversation/message. Persist-then-publish runs
// inside the service; there is no separate socket emit step.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	id, _, party, ok := identityFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	msg, err := h.svc.Send(r.Context(), NewMessage{
		Sender:       id,
		SenderType:   party,
		Receiver:     req.Receiver,
		ReceiverType: party.Counterpart(),
		Text:         req.Text,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func identityFrom(r *http.Request) (id, name string, party PartyType, ok bool) {
	id, ok1 := r.Context().Value(mw.ParticipantKey).(string)
	name, _ = r.Context().Value(mw.NameKey).(string)
	partyStr, ok2 := r.Context().Value(mw.PartyKey).(string)

	party = PartyType(partyStr)
	if !ok1 || !ok2 || !party.Valid() {
		return "", "", "", false
	}
	return id, name, party, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errs.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errs.IsPersistence(err):
		// The sender must know the message was NOT delivered.
		writeError(w, http.StatusServiceUnavailable, "message could not be saved, try again")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
