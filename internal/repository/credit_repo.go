package repository

import (
	"Atelier/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrInsufficientBalance 余额不足，条件更新未命中任何行
var ErrInsufficientBalance = errors.New("余额不足")

// DebitBalance 原子扣减：余额充足才会命中更新，否则返回 ErrInsufficientBalance。
// 接收调用方的 db 句柄，既可以独立执行，也可以挂在更大的事务里。
func DebitBalance(tx *gorm.DB, userID uint64, amount int64) error {
	result := tx.Model(&model.User{}).
		Where("id = ? AND credit_balance >= ?", userID, amount).
		Update("credit_balance", gorm.Expr("credit_balance - ?", amount))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

type CreditRepo interface {
	GetBalance(ctx context.Context, userID uint64) (int64, error)
	Debit(ctx context.Context, userID uint64, amount int64, txType string, description string) error
	Credit(ctx context.Context, userID uint64, amount int64, txType string, description string) error
	ListTransactions(ctx context.Context, userID uint64, page, pageSize int) ([]*model.CreditTransaction, int64, error)
	TrimTransactions(ctx context.Context, keep int) error
}

type CreditRepoImpl struct {
	db *gorm.DB
}

func NewCreditRepo(db *gorm.DB) CreditRepo {
	return &CreditRepoImpl{db: db}
}

// GetBalance 读取当前余额，只读快照，不做任何锁定
func (s *CreditRepoImpl) GetBalance(ctx context.Context, userID uint64) (int64, error) {
	var balance int64
	result := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Pluck("credit_balance", &balance)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return balance, nil
}

// Debit 独立扣减并追加一条负数流水
func (s *CreditRepoImpl) Debit(ctx context.Context, userID uint64, amount int64, txType string, description string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := DebitBalance(tx, userID, amount); err != nil {
			return err
		}

		txn := &model.CreditTransaction{
			UserID:      userID,
			Amount:      -amount,
			TxType:      txType,
			Description: description,
		}
		return tx.Create(txn).Error
	})
}

// Credit 充值或赠送，追加一条正数流水
func (s *CreditRepoImpl) Credit(ctx context.Context, userID uint64, amount int64, txType string, description string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.User{}).
			Where("id = ?", userID).
			Update("credit_balance", gorm.Expr("credit_balance + ?", amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		txn := &model.CreditTransaction{
			UserID:      userID,
			Amount:      amount,
			TxType:      txType,
			Description: description,
		}
		return tx.Create(txn).Error
	})
}

func (s *CreditRepoImpl) ListTransactions(ctx context.Context, userID uint64, page, pageSize int) ([]*model.CreditTransaction, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.CreditTransaction{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	txns := make([]*model.CreditTransaction, 0)
	result := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&txns)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return txns, total, nil
}

// TrimTransactions 每个用户只保留最近 keep 条流水，由定时任务调用
func (s *CreditRepoImpl) TrimTransactions(ctx context.Context, keep int) error {
	return s.db.WithContext(ctx).Exec(`
		DELETE t FROM credit_transactions t
		JOIN (
			SELECT user_id, MIN(id) AS min_keep FROM (
				SELECT user_id, id,
					ROW_NUMBER() OVER (PARTITION BY user_id ORDER BY id DESC) AS rn
				FROM credit_transactions
			) ranked
			WHERE rn <= ?
			GROUP BY user_id
		) keepset ON t.user_id = keepset.user_id
		WHERE t.id < keepset.min_keep`, keep).Error
}
