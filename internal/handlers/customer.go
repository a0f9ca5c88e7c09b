package handlers

import (
	"net/http"

	"github.com/averybrooks/fonezone/internal/models"
	"github.com/averybrooks/fonezone/internal/store"
)

// CustomerHandler serves the customer dashboard: repair requests and the
// customer side of the support chat.
type CustomerHandler struct {
	Store *store.Store
}

type repairRequest struct {
	Device string `json:"device"`
	Issue  string `json:"issue"`
}

func (h *CustomerHandler) SubmitRepair(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	var req repairRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ticket, err := h.Store.CreateRepair(r.Context(), actor.Email, actor.DisplayName, req.Device, req.Issue)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

func (h *CustomerHandler) MyRepairs(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	tickets, err := h.Store.RepairsByRequester(r.Context(), actor.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"repairs": tickets})
}

func (h *CustomerHandler) CancelRepair(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	id := r.PathValue("id")
	if err := h.Store.CancelRepair(r.Context(), id, actor.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "repair request cancelled"})
}

type supportSendRequest struct {
	Body string `json:"body"`
}

// SupportThread returns the customer's chat with the support desk and marks
// the replies addressed to them as read.
func (h *CustomerHandler) SupportThread(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	if err := h.Store.MarkThreadRead(r.Context(), actor.Email, actor.Email); err != nil {
		writeError(w, err)
		return
	}
	msgs, err := h.Store.SupportThread(r.Context(), actor.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (h *CustomerHandler) SendSupportMessage(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	var req supportSendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	msg, err := h.Store.AppendSupportMessage(r.Context(), actor.Email, "support", models.SenderUser, req.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
