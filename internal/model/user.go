package model

import (
	"time"
)

type User struct {
	ID            uint64  `gorm:"primaryKey"`
	Username      *string `gorm:"type:varchar(50);uniqueIndex:idx_username"`
	Password      *string `gorm:"type:varchar(255)"`
	CreditBalance int64   `gorm:"not null;default:0" json:"credit_balance"`
	IsBan         bool    `gorm:"type:tinyint(1);default:0"`
	IsDelete      bool    `gorm:"type:tinyint(1);default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (User) TableName() string {
	return "users"
}
