// Package alerts decides which expiry and low-stock alerts are due and
// records them, at most once each.
package alerts

import (
	"fmt"
	"time"

	"medialert/m/domain"
	"medialert/m/internal/store"
)

const dateLayout = "2006-01-02"

// Engine evaluates the alert rules against the store.
type Engine struct {
	store *store.Store
	now   func() time.Time
}

// New constructs an Engine that evaluates rules against the current date.
func New(st *store.Store) *Engine {
	return &Engine{store: st, now: time.Now}
}

// NewWithClock constructs an Engine with an injected clock, for tests.
func NewWithClock(st *store.Store, now func() time.Time) *Engine {
	return &Engine{store: st, now: now}
}

// CheckAll runs both rule checks. They are idempotent and independent of
// each other, so ordering does not matter.
func (e *Engine) CheckAll() error {
	if err := e.CheckExpiry(); err != nil {
		return err
	}
	return e.CheckLowStock()
}

// CheckExpiry creates an expiry alert for every in-stock medicine whose
// remaining shelf life matches a configured offset exactly. A day that
// passed without the check running never fires retroactively.
func (e *Engine) CheckExpiry() error {
	alertDays := e.alertDays()
	medicines, err := e.store.MedicinesInStock()
	if err != nil {
		return err
	}
	today := e.now()

	for _, m := range medicines {
		expiry, err := time.Parse(dateLayout, m.ExpiryDate)
		if err != nil {
			// Expiry dates are validated at the write boundary; a bad one
			// here means the row bypassed it.
			return fmt.Errorf("medicine %d has malformed expiry date %q", m.ID, m.ExpiryDate)
		}
		daysUntilExpiry := calendarDays(today, expiry)

		for _, days := range alertDays {
			if daysUntilExpiry != days {
				continue
			}
			alertDate := today.AddDate(0, 0, days).Format(dateLayout)
			exists, err := e.store.HasExpiryAlert(m.ID, alertDate)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			err = e.store.InsertAlert(domain.Alert{
				MedicineID: m.ID,
				AlertType:  domain.AlertTypeExpiry,
				AlertDate:  alertDate,
				Message:    fmt.Sprintf("%s expires in %d days (%s)", m.Name, days, m.ExpiryDate),
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// CheckLowStock creates one unsent low-stock alert per medicine whose
// quantity has fallen to or below its threshold. Out-of-stock medicines are
// excluded entirely.
func (e *Engine) CheckLowStock() error {
	medicines, err := e.store.LowStockMedicines()
	if err != nil {
		return err
	}
	today := e.now().Format(dateLayout)

	for _, m := range medicines {
		exists, err := e.store.HasUnsentLowStockAlert(m.ID)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		err = e.store.InsertAlert(domain.Alert{
			MedicineID: m.ID,
			AlertType:  domain.AlertTypeLowStock,
			AlertDate:  today,
			Message:    fmt.Sprintf("%s is running low (Quantity: %d)", m.Name, m.Quantity),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// alertDays returns the configured expiry offsets, falling back to the
// defaults when the settings row is absent or unreadable.
func (e *Engine) alertDays() []int {
	settings, err := e.store.GetSettings()
	if err != nil {
		return domain.DefaultAlertDays()
	}
	return settings.AlertDaysBefore
}

// calendarDays returns the whole-day difference between two dates, ignoring
// the time of day.
func calendarDays(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
