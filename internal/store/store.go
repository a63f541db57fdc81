package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"medialert/m/domain"
)

// ErrNotFound is returned when a lookup or mutation targets an absent row.
var ErrNotFound = errors.New("not found")

// settingsUserID is the implicit single user owning the settings row.
const settingsUserID = 1

// Store provides typed CRUD primitives over the medicines, alerts and
// user_settings tables.
type Store struct {
	db *sqlx.DB
}

// New constructs a Store around an open database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Medicines

const medicineColumns = `id, name, brand, generic_name, category, expiry_date, purchase_date,
        quantity, min_threshold, batch_number, manufacturer, price, storage_location,
        created_at, updated_at`

// InsertMedicine stores a new medicine and returns its id.
func (s *Store) InsertMedicine(m domain.Medicine) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO medicines (
            name, brand, generic_name, category, expiry_date, purchase_date,
            quantity, min_threshold, batch_number, manufacturer, price, storage_location
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Name, m.Brand, m.GenericName, m.Category, m.ExpiryDate, m.PurchaseDate,
		m.Quantity, m.MinThreshold, m.BatchNumber, m.Manufacturer, m.Price, m.StorageLocation)
	if err != nil {
		return 0, fmt.Errorf("insert medicine: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert medicine: %w", err)
	}
	return id, nil
}

// GetMedicine fetches one medicine by id.
func (s *Store) GetMedicine(id int64) (domain.Medicine, error) {
	var m domain.Medicine
	err := s.db.Get(&m, `SELECT `+medicineColumns+` FROM medicines WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Medicine{}, ErrNotFound
	}
	if err != nil {
		return domain.Medicine{}, fmt.Errorf("get medicine: %w", err)
	}
	return m, nil
}

// ListMedicines returns every medicine, soonest-expiring first.
func (s *Store) ListMedicines() ([]domain.Medicine, error) {
	medicines := []domain.Medicine{}
	if err := s.db.Select(&medicines, `SELECT `+medicineColumns+` FROM medicines ORDER BY expiry_date ASC`); err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	return medicines, nil
}

// MedicinesInStock returns every medicine with quantity above zero.
func (s *Store) MedicinesInStock() ([]domain.Medicine, error) {
	medicines := []domain.Medicine{}
	if err := s.db.Select(&medicines, `SELECT `+medicineColumns+` FROM medicines WHERE quantity > 0`); err != nil {
		return nil, fmt.Errorf("medicines in stock: %w", err)
	}
	return medicines, nil
}

// LowStockMedicines returns in-stock medicines at or below their threshold.
func (s *Store) LowStockMedicines() ([]domain.Medicine, error) {
	medicines := []domain.Medicine{}
	if err := s.db.Select(&medicines,
		`SELECT `+medicineColumns+` FROM medicines WHERE quantity > 0 AND quantity <= min_threshold`); err != nil {
		return nil, fmt.Errorf("low stock medicines: %w", err)
	}
	return medicines, nil
}

// UpdateMedicine applies the non-nil fields of upd and touches updated_at.
func (s *Store) UpdateMedicine(id int64, upd domain.MedicineUpdate) error {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if upd.Name != nil {
		set("name", *upd.Name)
	}
	if upd.Brand != nil {
		set("brand", *upd.Brand)
	}
	if upd.GenericName != nil {
		set("generic_name", *upd.GenericName)
	}
	if upd.Category != nil {
		set("category", *upd.Category)
	}
	if upd.ExpiryDate != nil {
		set("expiry_date", *upd.ExpiryDate)
	}
	if upd.PurchaseDate != nil {
		set("purchase_date", *upd.PurchaseDate)
	}
	if upd.Quantity != nil {
		set("quantity", *upd.Quantity)
	}
	if upd.MinThreshold != nil {
		set("min_threshold", *upd.MinThreshold)
	}
	if upd.BatchNumber != nil {
		set("batch_number", *upd.BatchNumber)
	}
	if upd.Manufacturer != nil {
		set("manufacturer", *upd.Manufacturer)
	}
	if upd.Price != nil {
		set("price", *upd.Price)
	}
	if upd.StorageLocation != nil {
		set("storage_location", *upd.StorageLocation)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	res, err := s.db.Exec(`UPDATE medicines SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update medicine: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update medicine: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMedicine removes a medicine and every alert referencing it.
func (s *Store) DeleteMedicine(id int64) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("delete medicine: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM medicines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete medicine: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete medicine: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(`DELETE FROM alerts WHERE medicine_id = ?`, id); err != nil {
		return fmt.Errorf("delete medicine alerts: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete medicine: %w", err)
	}
	return nil
}

// Alerts

// HasExpiryAlert reports whether an expiry alert already exists for the
// medicine on the given date.
func (s *Store) HasExpiryAlert(medicineID int64, alertDate string) (bool, error) {
	var count int
	err := s.db.Get(&count,
		`SELECT COUNT(*) FROM alerts WHERE medicine_id = ? AND alert_type = 'expiry' AND alert_date = ?`,
		medicineID, alertDate)
	if err != nil {
		return false, fmt.Errorf("check expiry alert: %w", err)
	}
	return count > 0, nil
}

// HasUnsentLowStockAlert reports whether the medicine already has an unsent
// low-stock alert.
func (s *Store) HasUnsentLowStockAlert(medicineID int64) (bool, error) {
	var count int
	err := s.db.Get(&count,
		`SELECT COUNT(*) FROM alerts WHERE medicine_id = ? AND alert_type = 'low_stock' AND is_sent = FALSE`,
		medicineID)
	if err != nil {
		return false, fmt.Errorf("check low stock alert: %w", err)
	}
	return count > 0, nil
}

// InsertAlert stores a new alert. The unique indexes make a duplicate insert
// a no-op rather than an error, so concurrent checks cannot double-fire.
func (s *Store) InsertAlert(a domain.Alert) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO alerts (medicine_id, alert_type, alert_date, message) VALUES (?, ?, ?, ?)`,
		a.MedicineID, a.AlertType, a.AlertDate, a.Message)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// RecentAlerts returns up to limit alerts, newest first, each carrying its
// medicine's name.
func (s *Store) RecentAlerts(limit int) ([]domain.Alert, error) {
	alerts := []domain.Alert{}
	err := s.db.Select(&alerts,
		`SELECT a.id, a.medicine_id, a.alert_type, a.alert_date, a.message, a.is_sent, a.created_at,
                m.name AS medicine_name
        FROM alerts a
        JOIN medicines m ON m.id = a.medicine_id
        ORDER BY a.created_at DESC, a.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent alerts: %w", err)
	}
	return alerts, nil
}

// MarkAlertSent flips the sent flag on an alert.
func (s *Store) MarkAlertSent(id int64) error {
	res, err := s.db.Exec(`UPDATE alerts SET is_sent = TRUE WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark alert sent: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark alert sent: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Settings

type settingsRow struct {
	ID                      int64  `db:"id"`
	UserID                  int64  `db:"user_id"`
	AlertDaysBefore         string `db:"alert_days_before"`
	NotificationPreferences string `db:"notification_preferences"`
	EmailAlerts             bool   `db:"email_alerts"`
	CreatedAt               string `db:"created_at"`
}

// GetSettings loads the singleton settings record, decoding the structured
// text fields. Malformed text falls back to the defaults rather than failing.
func (s *Store) GetSettings() (domain.Settings, error) {
	var row settingsRow
	err := s.db.Get(&row,
		`SELECT id, user_id, alert_days_before, notification_preferences, email_alerts, created_at
        FROM user_settings WHERE user_id = ?`, settingsUserID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Settings{}, ErrNotFound
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("get settings: %w", err)
	}

	settings := domain.Settings{
		ID:                      row.ID,
		UserID:                  row.UserID,
		AlertDaysBefore:         domain.DefaultAlertDays(),
		NotificationPreferences: domain.DefaultNotificationPreferences(),
		EmailAlerts:             row.EmailAlerts,
		CreatedAt:               row.CreatedAt,
	}
	var days []int
	if err := json.Unmarshal([]byte(row.AlertDaysBefore), &days); err == nil && days != nil {
		settings.AlertDaysBefore = days
	}
	var prefs domain.NotificationPreferences
	if err := json.Unmarshal([]byte(row.NotificationPreferences), &prefs); err == nil {
		settings.NotificationPreferences = prefs
	}
	return settings, nil
}

// UpdateSettings applies the non-nil fields of upd, re-encoding the
// structured ones to their stored text form.
func (s *Store) UpdateSettings(upd domain.SettingsUpdate) error {
	var (
		sets []string
		args []any
	)
	if upd.AlertDaysBefore != nil {
		encoded, err := json.Marshal(*upd.AlertDaysBefore)
		if err != nil {
			return fmt.Errorf("encode alert days: %w", err)
		}
		sets = append(sets, "alert_days_before = ?")
		args = append(args, string(encoded))
	}
	if upd.NotificationPreferences != nil {
		encoded, err := json.Marshal(*upd.NotificationPreferences)
		if err != nil {
			return fmt.Errorf("encode notification preferences: %w", err)
		}
		sets = append(sets, "notification_preferences = ?")
		args = append(args, string(encoded))
	}
	if upd.EmailAlerts != nil {
		sets = append(sets, "email_alerts = ?")
		args = append(args, *upd.EmailAlerts)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, settingsUserID)

	res, err := s.db.Exec(`UPDATE user_settings SET `+strings.Join(sets, ", ")+` WHERE user_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
