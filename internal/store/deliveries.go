package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/averybrooks/fonezone/internal/errs"
	"github.com/averybrooks/fonezone/internal/kv"
	"github.com/averybrooks/fonezone/internal/models"
)

// CreateDelivery files a delivery job, already assigned to a driver.
func (s *Store) CreateDelivery(ctx context.Context, driverEmail, customer, address string) (*models.DeliveryJob, error) {
	if driverEmail == "" {
		return nil, fmt.Errorf("%w: driver email is required", errs.ErrValidation)
	}
	if customer == "" {
		return nil, fmt.Errorf("%w: customer is required", errs.ErrValidation)
	}
	if address == "" {
		return nil, fmt.Errorf("%w: address is required", errs.ErrValidation)
	}

	mu := s.lock(kv.KeyDeliveries)
	mu.Lock()
	defer mu.Unlock()

	jobs, err := readList[models.DeliveryJob](ctx, s.db, kv.KeyDeliveries)
	if err != nil {
		return nil, err
	}
	job := models.DeliveryJob{
		ID:          uuid.New().String(),
		DriverEmail: strings.ToLower(driverEmail),
		Customer:    customer,
		Address:     address,
		Status:      models.DeliveryPending,
		CreatedAt:   time.Now().UTC(),
	}
	jobs = append(jobs, job)
	if err := writeList(ctx, s.db, kv.KeyDeliveries, jobs); err != nil {
		return nil, err
	}
	return &job, nil
}

// DeliveriesByDriver lists a driver's jobs, newest first.
func (s *Store) DeliveriesByDriver(ctx context.Context, driverEmail string) ([]models.DeliveryJob, error) {
	jobs, err := readList[models.DeliveryJob](ctx, s.db, kv.KeyDeliveries)
	if err != nil {
		return nil, err
	}
	var out []models.DeliveryJob
	for _, j := range jobs {
		if strings.EqualFold(j.DriverEmail, driverEmail) {
			out = append(out, j)
		}
	}
	sortNewestFirst(out, func(j models.DeliveryJob) time.Time { return j.CreatedAt })
	return out, nil
}

func (s *Store) AllDeliveries(ctx context.Context) ([]models.DeliveryJob, error) {
	jobs, err := readList[models.DeliveryJob](ctx, s.db, kv.KeyDeliveries)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(jobs, func(j models.DeliveryJob) time.Time { return j.CreatedAt })
	return jobs, nil
}

// AdvanceDelivery moves a job one step along pending → delivering →
// delivered. Only the assigned driver may advance; delivered is terminal.
func (s *Store) AdvanceDelivery(ctx context.Context, id, driverEmail string) (*models.DeliveryJob, error) {
	mu := s.lock(kv.KeyDeliveries)
	mu.Lock()
	defer mu.Unlock()

	jobs, err := readList[models.DeliveryJob](ctx, s.db, kv.KeyDeliveries)
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		if jobs[i].ID != id {
			continue
		}
		if !strings.EqualFold(jobs[i].DriverEmail, driverEmail) {
			return nil, fmt.Errorf("%w: job is not assigned to you", errs.ErrUnauthorized)
		}
		next := jobs[i].Status.Next()
		if next == "" {
			return nil, fmt.Errorf("%w: job is already %s", errs.ErrConflict, jobs[i].Status)
		}
		jobs[i].Status = next
		if err := writeList(ctx, s.db, kv.KeyDeliveries, jobs); err != nil {
			return nil, err
		}
		advanced := jobs[i]
		return &advanced, nil
	}
	return nil, fmt.Errorf("%w: delivery %s", errs.ErrNotFound, id)
}
