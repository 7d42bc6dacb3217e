package service

import (
	"Atelier/internal/api/config"
	"Atelier/internal/api/dto"
	"Atelier/internal/pkg/consts"
	"Atelier/internal/repository"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type CreditService interface {
	GetBalance(ctx context.Context, userID uint64) (int64, error)
	HasSufficientCredits(ctx context.Context, userID uint64, required int64) (bool, error)
	QuoteGenerationCost(numOutputs int) int64
	TopUp(ctx context.Context, userID uint64, amount int64) error
	ListTransactions(ctx context.Context, userID uint64, page, pageSize int) ([]*dto.TransactionDTO, int64, error)
}

type CreditServiceImpl struct {
	creditRepo repository.CreditRepo
}

func NewCreditService(creditRepo repository.CreditRepo) CreditService {
	return &CreditServiceImpl{creditRepo: creditRepo}
}

func (s *CreditServiceImpl) GetBalance(ctx context.Context, userID uint64) (int64, error) {
	balance, err := s.creditRepo.GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return balance, nil
}

// HasSufficientCredits 只读预检，不锁定余额。并发提交仍可能在真正扣减时失败，
// 以扣减语句的条件更新为准。
func (s *CreditServiceImpl) HasSufficientCredits(ctx context.Context, userID uint64, required int64) (bool, error) {
	balance, err := s.GetBalance(ctx, userID)
	if err != nil {
		return false, err
	}
	return balance >= required, nil
}

// QuoteGenerationCost 按请求的出图数量报价
func (s *CreditServiceImpl) QuoteGenerationCost(numOutputs int) int64 {
	if numOutputs < 1 {
		numOutputs = 1
	}
	return config.Cfg.Credits.CostPerOutput * int64(numOutputs)
}

func (s *CreditServiceImpl) TopUp(ctx context.Context, userID uint64, amount int64) error {
	err := s.creditRepo.Credit(ctx, userID, amount, consts.TxTypePurchase, "积分充值")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *CreditServiceImpl) ListTransactions(ctx context.Context, userID uint64, page, pageSize int) ([]*dto.TransactionDTO, int64, error) {
	txns, total, err := s.creditRepo.ListTransactions(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.TransactionDTO, 0, len(txns))
	for _, txn := range txns {
		items = append(items, &dto.TransactionDTO{
			ID:          txn.ID,
			Amount:      txn.Amount,
			TxType:      txn.TxType,
			Description: txn.Description,
			CreatedAt:   txn.CreatedAt.Format(time.RFC3339),
		})
	}
	return items, total, nil
}
