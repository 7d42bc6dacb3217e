package service

import (
	"Atelier/internal/model"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorm.io/gorm"
)

type fakeCreditRepo struct {
	balances map[uint64]int64
	txns     []*model.CreditTransaction
}

func (f *fakeCreditRepo) GetBalance(_ context.Context, userID uint64) (int64, error) {
	balance, ok := f.balances[userID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return balance, nil
}

func (f *fakeCreditRepo) Debit(_ context.Context, userID uint64, amount int64, txType string, description string) error {
	f.balances[userID] -= amount
	f.txns = append(f.txns, &model.CreditTransaction{UserID: userID, Amount: -amount, TxType: txType, Description: description})
	return nil
}

func (f *fakeCreditRepo) Credit(_ context.Context, userID uint64, amount int64, txType string, description string) error {
	if _, ok := f.balances[userID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.balances[userID] += amount
	f.txns = append(f.txns, &model.CreditTransaction{UserID: userID, Amount: amount, TxType: txType, Description: description})
	return nil
}

func (f *fakeCreditRepo) ListTransactions(context.Context, uint64, int, int) ([]*model.CreditTransaction, int64, error) {
	return f.txns, int64(len(f.txns)), nil
}

func (f *fakeCreditRepo) TrimTransactions(context.Context, int) error {
	return nil
}

func TestGetBalanceUnknownUser(t *testing.T) {
	svc := NewCreditService(&fakeCreditRepo{balances: map[uint64]int64{}})

	_, err := svc.GetBalance(context.Background(), 42)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestHasSufficientCreditsIsReadOnly(t *testing.T) {
	repo := &fakeCreditRepo{balances: map[uint64]int64{1: 10}}
	svc := NewCreditService(repo)

	// 预检任意多次都不改变余额
	for i := 0; i < 3; i++ {
		enough, err := svc.HasSufficientCredits(context.Background(), 1, 10)
		require.NoError(t, err)
		assert.True(t, enough)
	}
	assert.Equal(t, int64(10), repo.balances[1])

	enough, err := svc.HasSufficientCredits(context.Background(), 1, 11)
	require.NoError(t, err)
	assert.False(t, enough)
}

func TestQuoteGenerationCost(t *testing.T) {
	svc := NewCreditService(&fakeCreditRepo{balances: map[uint64]int64{}})

	assert.Equal(t, int64(5), svc.QuoteGenerationCost(1))
	assert.Equal(t, int64(20), svc.QuoteGenerationCost(4))
	// 非法数量按 1 张报价
	assert.Equal(t, int64(5), svc.QuoteGenerationCost(0))
	assert.Equal(t, int64(5), svc.QuoteGenerationCost(-3))
}

func TestTopUp(t *testing.T) {
	repo := &fakeCreditRepo{balances: map[uint64]int64{1: 10}}
	svc := NewCreditService(repo)

	require.NoError(t, svc.TopUp(context.Background(), 1, 50))
	assert.Equal(t, int64(60), repo.balances[1])
	require.Len(t, repo.txns, 1)
	assert.Equal(t, int64(50), repo.txns[0].Amount)

	err := svc.TopUp(context.Background(), 99, 50)
	require.ErrorIs(t, err, ErrUserNotFound)
}
