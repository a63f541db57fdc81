// Package inventory orchestrates medicine CRUD and triggers the alert rule
// engine after every mutation.
package inventory

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"medialert/m/domain"
	"medialert/m/internal/alerts"
	"medialert/m/internal/store"
)

// ErrInvalid marks a validation failure at the write boundary.
var ErrInvalid = errors.New("invalid medicine")

const dateLayout = "2006-01-02"

// Service wraps the store with validation, defaults and alert triggers.
type Service struct {
	store  *store.Store
	engine *alerts.Engine
	now    func() time.Time
}

// New constructs a Service.
func New(st *store.Store, engine *alerts.Engine) *Service {
	return &Service{store: st, engine: engine, now: time.Now}
}

// NewWithClock constructs a Service with an injected clock, for tests.
func NewWithClock(st *store.Store, engine *alerts.Engine, now func() time.Time) *Service {
	return &Service{store: st, engine: engine, now: now}
}

// AddMedicine is the input for Add. Name and ExpiryDate are required; the
// rest carry the documented defaults.
type AddMedicine struct {
	Name            string   `json:"name"`
	ExpiryDate      string   `json:"expiry_date"`
	Quantity        int64    `json:"quantity"`
	Brand           *string  `json:"brand"`
	GenericName     *string  `json:"generic_name"`
	Category        string   `json:"category"`
	PurchaseDate    string   `json:"purchase_date"`
	MinThreshold    *int64   `json:"min_threshold"`
	BatchNumber     *string  `json:"batch_number"`
	Manufacturer    *string  `json:"manufacturer"`
	Price           *float64 `json:"price"`
	StorageLocation *string  `json:"storage_location"`
}

// Add validates and stores a new medicine, runs the alert checks, and
// returns the new id. A failed check does not roll back the insert.
func (s *Service) Add(in AddMedicine) (int64, error) {
	if strings.TrimSpace(in.Name) == "" {
		return 0, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if err := validDate(in.ExpiryDate); err != nil {
		return 0, fmt.Errorf("%w: expiry_date %v", ErrInvalid, err)
	}
	if in.Quantity < 0 {
		return 0, fmt.Errorf("%w: quantity must not be negative", ErrInvalid)
	}

	category := in.Category
	if category == "" {
		category = domain.CategoryOTC
	}
	if !domain.ValidCategory(category) {
		return 0, fmt.Errorf("%w: unknown category %q", ErrInvalid, category)
	}

	purchaseDate := in.PurchaseDate
	if purchaseDate == "" {
		purchaseDate = s.now().Format(dateLayout)
	} else if err := validDate(purchaseDate); err != nil {
		return 0, fmt.Errorf("%w: purchase_date %v", ErrInvalid, err)
	}

	minThreshold := int64(5)
	if in.MinThreshold != nil {
		if *in.MinThreshold < 0 {
			return 0, fmt.Errorf("%w: min_threshold must not be negative", ErrInvalid)
		}
		minThreshold = *in.MinThreshold
	}

	id, err := s.store.InsertMedicine(domain.Medicine{
		Name:            in.Name,
		Brand:           in.Brand,
		GenericName:     in.GenericName,
		Category:        category,
		ExpiryDate:      in.ExpiryDate,
		PurchaseDate:    purchaseDate,
		Quantity:        in.Quantity,
		MinThreshold:    minThreshold,
		BatchNumber:     in.BatchNumber,
		Manufacturer:    in.Manufacturer,
		Price:           in.Price,
		StorageLocation: in.StorageLocation,
	})
	if err != nil {
		return 0, err
	}
	if err := s.engine.CheckAll(); err != nil {
		return id, fmt.Errorf("alert check after add: %w", err)
	}
	return id, nil
}

// Update validates and applies a partial update, then runs the alert checks.
func (s *Service) Update(id int64, upd domain.MedicineUpdate) error {
	if upd.Empty() {
		return fmt.Errorf("%w: no fields to update", ErrInvalid)
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalid)
	}
	if upd.ExpiryDate != nil {
		if err := validDate(*upd.ExpiryDate); err != nil {
			return fmt.Errorf("%w: expiry_date %v", ErrInvalid, err)
		}
	}
	if upd.PurchaseDate != nil {
		if err := validDate(*upd.PurchaseDate); err != nil {
			return fmt.Errorf("%w: purchase_date %v", ErrInvalid, err)
		}
	}
	if upd.Category != nil && !domain.ValidCategory(*upd.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrInvalid, *upd.Category)
	}
	if upd.Quantity != nil && *upd.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalid)
	}
	if upd.MinThreshold != nil && *upd.MinThreshold < 0 {
		return fmt.Errorf("%w: min_threshold must not be negative", ErrInvalid)
	}

	if err := s.store.UpdateMedicine(id, upd); err != nil {
		return err
	}
	if err := s.engine.CheckAll(); err != nil {
		return fmt.Errorf("alert check after update: %w", err)
	}
	return nil
}

// Delete removes a medicine and its alerts.
func (s *Service) Delete(id int64) error {
	return s.store.DeleteMedicine(id)
}

// Get fetches one medicine.
func (s *Service) Get(id int64) (domain.Medicine, error) {
	return s.store.GetMedicine(id)
}

// List returns every medicine, soonest-expiring first.
func (s *Service) List() ([]domain.Medicine, error) {
	return s.store.ListMedicines()
}

func validDate(value string) error {
	if value == "" {
		return errors.New("is required")
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return fmt.Errorf("must be in YYYY-MM-DD format, got %q", value)
	}
	return nil
}
