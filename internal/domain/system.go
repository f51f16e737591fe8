package domain

import (
	"time"
)

// User is a visitor or administrator identified by a WhatsApp number.
type User struct {
	ID             int64     `json:"id,string" form:"id"`
	Whatsapp       string    `gorm:"size:32;uniqueIndex" json:"whatsapp" form:"whatsapp"`
	Name           string    `json:"name" form:"name"`
	City           string    `json:"city" form:"city"`
	PasswordHash   string    `json:"-"`
	IsAdmin        bool      `gorm:"index" json:"is_admin" form:"is_admin"`
	IsPrimaryAdmin bool      `json:"is_primary_admin"`
	LastLogin      time.Time `json:"last_login"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName Specify table name
func (User) TableName() string {
	return "sys_user"
}

// SysOprLog records administrative mutations.
type SysOprLog struct {
	ID        int64     `json:"id,string"`
	OprName   string    `json:"opr_name"`
	OprIp     string    `json:"opr_ip"`
	OptAction string    `json:"opt_action"`
	OptDesc   string    `json:"opt_desc"`
	OptTime   time.Time `gorm:"index" json:"opt_time"`
}

// TableName Specify table name
func (SysOprLog) TableName() string {
	return "sys_opr_log"
}
