package domain

// NotificationPreferences holds the per-channel delivery flags.
type NotificationPreferences struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	Sound bool `json:"sound"`
}

// Settings is the singleton user-settings record. The structured fields are
// stored as JSON text and decoded at the store boundary.
type Settings struct {
	ID                      int64                   `json:"id"`
	UserID                  int64                   `json:"user_id"`
	AlertDaysBefore         []int                   `json:"alert_days_before"`
	NotificationPreferences NotificationPreferences `json:"notification_preferences"`
	EmailAlerts             bool                    `json:"email_alerts"`
	CreatedAt               string                  `json:"created_at"`
}

// SettingsUpdate carries a partial settings update; only these three fields
// are updatable.
type SettingsUpdate struct {
	AlertDaysBefore         *[]int                   `json:"alert_days_before"`
	NotificationPreferences *NotificationPreferences `json:"notification_preferences"`
	EmailAlerts             *bool                    `json:"email_alerts"`
}

// DefaultAlertDays is the fallback expiry-offset list.
func DefaultAlertDays() []int { return []int{7, 15, 30} }

// DefaultNotificationPreferences enables every channel.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{Email: true, Push: true, Sound: true}
}
