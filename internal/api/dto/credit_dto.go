package dto

// BalanceDTO 余额
type BalanceDTO struct {
	Balance int64 `json:"balance"`
}

// TopUpDTO 充值
type TopUpDTO struct {
	Amount int64 `json:"amount" binding:"required" validate:"required,min=1,max=100000"`
}

// TransactionDTO 积分流水
type TransactionDTO struct {
	ID          uint64 `json:"id"`
	Amount      int64  `json:"amount"`
	TxType      string `json:"tx_type"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// JobDTO 生成任务记录
type JobDTO struct {
	ID              uint64  `json:"id"`
	JobKind         string  `json:"job_kind"`
	Status          string  `json:"status"`
	CreditsConsumed int64   `json:"credits_consumed"`
	CreatedAt       string  `json:"created_at"`
	CompletedAt     *string `json:"completed_at,omitempty"`
}

// PageQueryDTO 通用分页查询
type PageQueryDTO struct {
	Page     int `form:"page,default=1" validate:"min=1"`
	PageSize int `form:"page_size,default=20" validate:"min=1,max=100"`
}
