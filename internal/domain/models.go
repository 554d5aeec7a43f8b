package domain

const (
	StatusActive   = "active"
	StatusInactive = "inactive"

	PriceDaily = "daily"

	StockAvailable   = "available"
	StockUnavailable = "unavailable"
)

type Category struct {
	ID             int64   `db:"id" json:"id"`
	Name           string  `db:"name" json:"name"`
	Slug           string  `db:"slug" json:"slug"`
	Description    string  `db:"description" json:"description"`
	Image          *string `db:"image" json:"image"`
	Icon           string  `db:"icon" json:"icon"`
	ParentID       *int64  `db:"parent_id" json:"parent_id"`
	SortOrder      int     `db:"sort_order" json:"sort_order"`
	Status         string  `db:"status" json:"status"`
	EquipmentCount int     `db:"equipment_count" json:"equipment_count"`
	CreatedAt      string  `db:"created_at" json:"created_at"`
	UpdatedAt      *string `db:"updated_at" json:"updated_at"`
}

type Equipment struct {
	ID               int64    `db:"id" json:"id"`
	Name             string   `db:"name" json:"name"`
	Slug             string   `db:"slug" json:"slug"`
	Description      string   `db:"description" json:"description"`
	ShortDescription string   `db:"short_description" json:"short_description"`
	CategoryID       int64    `db:"category_id" json:"category_id"`
	CategoryName     *string  `db:"category_name" json:"category_name"`
	CategorySlug     *string  `db:"category_slug" json:"category_slug"`
	Image            *string  `db:"image" json:"image"`
	Gallery          Gallery  `db:"gallery" json:"gallery"`
	Price            *float64 `db:"price" json:"price"`
	PriceType        string   `db:"price_type" json:"price_type"`
	SKU              string   `db:"sku" json:"sku"`
	Brand            string   `db:"brand" json:"brand"`
	Model            string   `db:"model" json:"model"`
	Specs            Specs    `db:"specs" json:"specs"`
	StockStatus      string   `db:"stock_status" json:"stock_status"` // rentable availability, independent of Status
	Featured         bool     `db:"featured" json:"featured"`
	SortOrder        int      `db:"sort_order" json:"sort_order"`
	Status           string   `db:"status" json:"status"`
	Views            int64    `db:"views" json:"views"`
	CreatedAt        string   `db:"created_at" json:"created_at"`
	UpdatedAt        *string  `db:"updated_at" json:"updated_at"`
}

// Files returns every stored image path of the equipment.
func (e Equipment) Files() []string {
	var out []string
	if e.Image != nil && *e.Image != "" {
		out = append(out, *e.Image)
	}
	return append(out, e.Gallery...)
}
