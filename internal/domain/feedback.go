package domain

import "time"

type Feedback struct {
	ID          int64     `json:"id,string"`
	UserID      int64     `gorm:"index" json:"user_id,string"`
	ProductID   *int64    `gorm:"index" json:"product_id,omitempty"`
	Rating      int       `json:"rating"`
	Title       string    `gorm:"size:255" json:"title"`
	Message     string    `json:"message"`
	IsApproved  bool      `gorm:"index" json:"is_approved"`
	IsPublished bool      `gorm:"index" json:"is_published"`
	AdminNote   string    `json:"admin_note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Feedback) TableName() string {
	return "feedback"
}
