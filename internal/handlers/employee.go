package handlers

import (
	"net/http"
	"time"

	"github.com/averybrooks/fonezone/internal/models"
	"github.com/averybrooks/fonezone/internal/store"
)

// EmployeeHandler serves the three employee dashboards: the repair queue,
// the delivery queue and the support console.
type EmployeeHandler struct {
	Store *store.Store

	// SupportPollInterval is handed to the console so its refresh loop
	// matches the server's configured latency bound.
	SupportPollInterval time.Duration
}

// RepairQueue is the technician work view: own tickets plus the unclaimed
// pending backlog.
func (h *EmployeeHandler) RepairQueue(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	tickets, err := h.Store.TechnicianQueue(r.Context(), actor.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"repairs": tickets})
}

// ClaimRepair self-assigns an unclaimed ticket. A claim that lost the race
// answers 409 and the ticket keeps its first assignee.
func (h *EmployeeHandler) ClaimRepair(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	ticket, err := h.Store.ClaimRepair(r.Context(), r.PathValue("id"), actor.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

func (h *EmployeeHandler) AdvanceRepair(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	ticket, err := h.Store.AdvanceRepair(r.Context(), r.PathValue("id"), actor.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

func (h *EmployeeHandler) DeliveryQueue(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	jobs, err := h.Store.DeliveriesByDriver(r.Context(), actor.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deliveries": jobs})
}

func (h *EmployeeHandler) AdvanceDelivery(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	job, err := h.Store.AdvanceDelivery(r.Context(), r.PathValue("id"), actor.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// SupportConfig tells the console how often to poll. The interval is a
// freshness bound, not a correctness mechanism.
func (h *EmployeeHandler) SupportConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"poll_interval_ms": h.SupportPollInterval.Milliseconds(),
	})
}

// SupportCustomers is the console sidebar: every customer with a thread.
func (h *EmployeeHandler) SupportCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Store.SupportCustomers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
}

// SupportThread opens one customer's thread and marks their messages to the
// desk as read.
func (h *EmployeeHandler) SupportThread(w http.ResponseWriter, r *http.Request) {
	customer := r.PathValue("email")
	if err := h.Store.MarkThreadRead(r.Context(), customer, "support"); err != nil {
		writeError(w, err)
		return
	}
	msgs, err := h.Store.SupportThread(r.Context(), customer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

type supportReplyRequest struct {
	Body string `json:"body"`
}

func (h *EmployeeHandler) ReplySupport(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r)
	customer := r.PathValue("email")
	var req supportReplyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	msg, err := h.Store.AppendSupportMessage(r.Context(), actor.Email, customer, models.SenderSupport, req.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
