package domain

// Medicine categories.
const (
	CategoryPrescription = "prescription"
	CategoryOTC          = "otc"
	CategorySupplement   = "supplement"
)

// ValidCategory reports whether c is one of the known medicine categories.
func ValidCategory(c string) bool {
	return c == CategoryPrescription || c == CategoryOTC || c == CategorySupplement
}

type Medicine struct {
	ID              int64    `db:"id" json:"id"`
	Name            string   `db:"name" json:"name"`
	Brand           *string  `db:"brand" json:"brand,omitempty"`
	GenericName     *string  `db:"generic_name" json:"generic_name,omitempty"`
	Category        string   `db:"category" json:"category"`
	ExpiryDate      string   `db:"expiry_date" json:"expiry_date"`
	PurchaseDate    string   `db:"purchase_date" json:"purchase_date"`
	Quantity        int64    `db:"quantity" json:"quantity"`
	MinThreshold    int64    `db:"min_threshold" json:"min_threshold"`
	BatchNumber     *string  `db:"batch_number" json:"batch_number,omitempty"`
	Manufacturer    *string  `db:"manufacturer" json:"manufacturer,omitempty"`
	Price           *float64 `db:"price" json:"price,omitempty"`
	StorageLocation *string  `db:"storage_location" json:"storage_location,omitempty"`
	CreatedAt       string   `db:"created_at" json:"created_at"`
	UpdatedAt       string   `db:"updated_at" json:"updated_at"`
}

// MedicineUpdate carries a partial medicine update: one typed slot per
// updatable column, nil meaning "leave as is".
type MedicineUpdate struct {
	Name            *string  `json:"name"`
	Brand           *string  `json:"brand"`
	GenericName     *string  `json:"generic_name"`
	Category        *string  `json:"category"`
	ExpiryDate      *string  `json:"expiry_date"`
	PurchaseDate    *string  `json:"purchase_date"`
	Quantity        *int64   `json:"quantity"`
	MinThreshold    *int64   `json:"min_threshold"`
	BatchNumber     *string  `json:"batch_number"`
	Manufacturer    *string  `json:"manufacturer"`
	Price           *float64 `json:"price"`
	StorageLocation *string  `json:"storage_location"`
}

// Empty reports whether the update sets no fields at all.
func (u MedicineUpdate) Empty() bool {
	return u.Name == nil && u.Brand == nil && u.GenericName == nil &&
		u.Category == nil && u.ExpiryDate == nil && u.PurchaseDate == nil &&
		u.Quantity == nil && u.MinThreshold == nil && u.BatchNumber == nil &&
		u.Manufacturer == nil && u.Price == nil && u.StorageLocation == nil
}
