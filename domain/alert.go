package domain

// Alert types.
const (
	AlertTypeExpiry   = "expiry"
	AlertTypeLowStock = "low_stock"
	AlertTypeReminder = "reminder"
)

type Alert struct {
	ID           int64  `db:"id" json:"id"`
	MedicineID   int64  `db:"medicine_id" json:"medicine_id"`
	AlertType    string `db:"alert_type" json:"alert_type"`
	AlertDate    string `db:"alert_date" json:"alert_date"`
	Message      string `db:"message" json:"message"`
	IsSent       bool   `db:"is_sent" json:"is_sent"`
	CreatedAt    string `db:"created_at" json:"created_at"`
	MedicineName string `db:"medicine_name" json:"medicine_name,omitempty"`
}
