package domain

// Service represents a normalized marketplace service listing. Field names
// mirror the upstream API's wire format (camelCase keys).
type Service struct {
	ID          int64     `json:"id"`
	OwnerID     FlexID    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory,omitempty"`
	Price       FlexFloat `json:"price"`
	Location    string    `json:"location,omitempty"`
	IsMobile    bool      `json:"isMobileService"`
	IsActive    bool      `json:"isActive"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"reviewCount"`
}

// SortKey selects the ordering of a listing view.
type SortKey string

const (
	SortRecommended SortKey = "recommended"
	SortRating      SortKey = "rating"
	SortPriceAsc    SortKey = "price_asc"
	SortPriceDesc   SortKey = "price_desc"
)

// ParseSortKey maps a user-supplied sort value to a SortKey, falling back to
// the recommended (input order) sort.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortRating, SortPriceAsc, SortPriceDesc:
		return SortKey(s)
	default:
		return SortRecommended
	}
}

// Criteria contains the user-selected filter parameters for the public
// listing view. Pointer fields are optional bounds: nil means unbounded.
type Criteria struct {
	Search        string
	Location      string
	Categories    []string
	Subcategories []string
	MinPrice      *float64
	MaxPrice      *float64
	MobileOnly    bool
	Sort          SortKey
}

// CatalogStats contains aggregate statistics over the catalog snapshot.
type CatalogStats struct {
	TotalServices  int      `json:"total_services"`
	TotalOwners    int      `json:"total_owners"`
	ActiveServices int      `json:"active_services"`
	MobileServices int      `json:"mobile_services"`
	AvgRating      *float64 `json:"avg_rating,omitempty"`
	AvgPrice       *float64 `json:"avg_price,omitempty"`
}
