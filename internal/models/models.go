package models

import (
	"time"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// Category is the employee sub-role. Empty for customers and admins.
type Category string

const (
	CategoryRepairTechnician Category = "repair-technician"
	CategoryDeliveryDriver   Category = "delivery-driver"
	CategorySalesSupport     Category = "sales-support"
)

type Actor struct {
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Password    string    `json:"-"` // bcrypt hash, never serialized out
	Role        Role      `json:"role"`
	Category    Category  `json:"category,omitempty"` // only when Role == employee
	CreatedAt   time.Time `json:"created_at"`
}

func (a *Actor) IsEmployee(cat Category) bool {
	return a.Role == RoleEmployee && a.Category == cat
}

type RepairStatus string

const (
	RepairPending    RepairStatus = "pending"
	RepairProcessing RepairStatus = "processing"
	RepairCompleted  RepairStatus = "completed"
)

// Next returns the following status in the fixed sequence, or "" when the
// status is terminal.
func (s RepairStatus) Next() RepairStatus {
	switch s {
	case RepairPending:
		return RepairProcessing
	case RepairProcessing:
		return RepairCompleted
	}
	return ""
}

type RepairTicket struct {
	ID             string       `json:"id"`
	RequesterEmail string       `json:"requester_email"`
	RequesterName  string       `json:"requester_name"`
	Device         string       `json:"device"`
	Issue          string       `json:"issue"`
	AssignedTo     string       `json:"assigned_to,omitempty"` // technician email; soft reference, not checked against the directory
	Status         RepairStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
}

type DeliveryStatus string

const (
	DeliveryPending    DeliveryStatus = "pending"
	DeliveryDelivering DeliveryStatus = "delivering"
	DeliveryDelivered  DeliveryStatus = "delivered"
)

func (s DeliveryStatus) Next() DeliveryStatus {
	switch s {
	case DeliveryPending:
		return DeliveryDelivering
	case DeliveryDelivering:
		return DeliveryDelivered
	}
	return ""
}

type DeliveryJob struct {
	ID          string         `json:"id"`
	DriverEmail string         `json:"driver_email"`
	Customer    string         `json:"customer"`
	Address     string         `json:"address"`
	Status      DeliveryStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
}

// SupportMessage is one entry in the append-only chat log between a customer
// and the sales-support desk. Sender is "user" or "support".
type SupportMessage struct {
	ID     string    `json:"id"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	Sender string    `json:"sender"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
	Read   bool      `json:"read"`
}

const (
	SenderUser    = "user"
	SenderSupport = "support"
)

type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	ImageURL  string    `json:"image_url"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url"`
	Quantity  int     `json:"quantity"`
}

type WishlistItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url"`
}
