package model

import (
	"time"
)

// CreditTransaction 积分流水，只追加不修改
type CreditTransaction struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	UserID      uint64    `gorm:"not null;index:idx_user_id" json:"user_id"`
	Amount      int64     `gorm:"not null" json:"amount"` // 消耗为负，充值为正
	TxType      string    `gorm:"type:varchar(32);not null" json:"tx_type"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}
