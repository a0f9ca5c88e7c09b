package store

import (
	"context"

	"github.com/averybrooks/fonezone/internal/kv"
	"github.com/averybrooks/fonezone/internal/models"
)

type DashboardStats struct {
	TotalProducts      int            `json:"total_products"`
	TotalRepairs       int            `json:"total_repairs"`
	TotalDeliveries    int            `json:"total_deliveries"`
	RepairsByStatus    map[string]int `json:"repairs_by_status"`
	DeliveriesByStatus map[string]int `json:"deliveries_by_status"`
	RepairsPerTech     map[string]int `json:"repairs_per_technician"`
}

// DashboardStats aggregates the counts the admin dashboard shows.
func (s *Store) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		RepairsByStatus:    make(map[string]int),
		DeliveriesByStatus: make(map[string]int),
		RepairsPerTech:     make(map[string]int),
	}

	products, err := readList[models.Product](ctx, s.db, kv.KeyProducts)
	if err != nil {
		return nil, err
	}
	stats.TotalProducts = len(products)

	repairs, err := readList[models.RepairTicket](ctx, s.db, kv.KeyRepairs)
	if err != nil {
		return nil, err
	}
	stats.TotalRepairs = len(repairs)
	for _, t := range repairs {
		stats.RepairsByStatus[string(t.Status)]++
		if t.AssignedTo != "" {
			stats.RepairsPerTech[t.AssignedTo]++
		}
	}

	deliveries, err := readList[models.DeliveryJob](ctx, s.db, kv.KeyDeliveries)
	if err != nil {
		return nil, err
	}
	stats.TotalDeliveries = len(deliveries)
	for _, j := range deliveries {
		stats.DeliveriesByStatus[string(j.Status)]++
	}

	return stats, nil
}
