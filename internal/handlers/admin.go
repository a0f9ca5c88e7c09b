package handlers

import (
	"net/http"

	"github.com/averybrooks/fonezone/internal/models"
	"github.com/averybrooks/fonezone/internal/session"
	"github.com/averybrooks/fonezone/internal/store"
)

// AdminHandler serves the admin console: catalog CRUD, the actor directory
// and the operations overview. Admin override covers actors and products
// only; in-flight tickets and jobs are read-only here.
type AdminHandler struct {
	Store    *store.Store
	Sessions *session.Store
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.DashboardStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type productRequest struct {
	Name     *string  `json:"name"`
	Price    *float64 `json:"price"`
	ImageURL *string  `json:"image_url"`
	Category *string  `json:"category"`
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	name, price, imageURL, category := "", 0.0, "", ""
	if req.Name != nil {
		name = *req.Name
	}
	if req.Price != nil {
		price = *req.Price
	}
	if req.ImageURL != nil {
		imageURL = *req.ImageURL
	}
	if req.Category != nil {
		category = *req.Category
	}
	product, err := h.Store.CreateProduct(r.Context(), name, price, imageURL, category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	product, err := h.Store.UpdateProduct(r.Context(), r.PathValue("id"), store.ProductPatch{
		Name:     req.Name,
		Price:    req.Price,
		ImageURL: req.ImageURL,
		Category: req.Category,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

func (h *AdminHandler) ListActors(w http.ResponseWriter, r *http.Request) {
	actors, err := h.Sessions.ListActors(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"actors": actors})
}

type promoteRequest struct {
	Category models.Category `json:"category"`
}

// PromoteActor turns a customer into an employee with a category.
func (h *AdminHandler) PromoteActor(w http.ResponseWriter, r *http.Request) {
	var req promoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	actor, err := h.Sessions.Promote(r.Context(), r.PathValue("email"), req.Category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actor)
}

func (h *AdminHandler) DeleteActor(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.DeleteActor(r.Context(), r.PathValue("email")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "actor deleted"})
}

// AllRepairs and AllDeliveries are the admin's read-only operations views.
func (h *AdminHandler) AllRepairs(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.Store.AllRepairs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"repairs": tickets})
}

func (h *AdminHandler) AllDeliveries(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.Store.AllDeliveries(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deliveries": jobs})
}

type deliveryRequest struct {
	DriverEmail string `json:"driver_email"`
	Customer    string `json:"customer"`
	Address     string `json:"address"`
}

// CreateDelivery files a delivery job pre-assigned to a driver.
func (h *AdminHandler) CreateDelivery(w http.ResponseWriter, r *http.Request) {
	var req deliveryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	job, err := h.Store.CreateDelivery(r.Context(), req.DriverEmail, req.Customer, req.Address)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}
