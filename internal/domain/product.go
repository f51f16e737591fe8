package domain

import "time"

const (
	ProductActive   = "active"
	ProductInactive = "inactive"
	ProductDraft    = "draft"
)

// Product is one catalog item. Material uses "" for unspecified.
type Product struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Code        string    `gorm:"size:64;uniqueIndex" json:"code"`
	Name        string    `gorm:"size:255;index" json:"name"`
	Category    string    `gorm:"size:128;index" json:"category"`
	Finish      string    `gorm:"size:128;index" json:"finish"`
	Material    string    `gorm:"size:128;index" json:"material"`
	Length      float64   `json:"length"`
	Breadth     float64   `json:"breadth"`
	Height      float64   `json:"height"`
	Image       string    `gorm:"size:1024" json:"image"`
	Images      []string  `gorm:"serializer:json" json:"images"`
	Description string    `json:"description"`
	Status      string    `gorm:"size:16;index" json:"status"`
	SearchKey   string    `gorm:"size:1024" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "product"
}

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s string) bool {
	switch s {
	case ProductActive, ProductInactive, ProductDraft:
		return true
	}
	return false
}
