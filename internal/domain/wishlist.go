package domain

import "time"

type WishlistItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_wishlist_user_product" json:"user_id,string"`
	ProductID int64     `gorm:"not null;uniqueIndex:idx_wishlist_user_product;index" json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName Specify table name
func (WishlistItem) TableName() string {
	return "wishlist"
}

// WishlistEntry is a wishlist item joined with its product.
type WishlistEntry struct {
	WishlistItem
	Product Product `json:"product"`
}
