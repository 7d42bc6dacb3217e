package service

import (
	"Atelier/internal/api/config"
	"Atelier/internal/api/dto"
	"Atelier/internal/model"
	"Atelier/internal/pkg/comfy"
	"Atelier/internal/pkg/consts"
	"Atelier/internal/pkg/mongo"
	"Atelier/internal/pkg/taskqueue"
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"Atelier/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	config.Cfg = &config.Config{
		Credits: config.CreditsConfig{
			CostPerOutput:    5,
			SignupGrant:      100,
			PresignTTLMinute: 60,
			HistoryKeep:      100,
		},
	}
}

type fakeGenerator struct {
	artifacts [][]byte
	err       error
	calls     int
}

func (f *fakeGenerator) Generate(_ context.Context, _ comfy.GenerateParams) ([][]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.artifacts, nil
}

func (f *fakeGenerator) DefaultSdModel(string) string {
	return "test-model"
}

type fakeStore struct {
	mu         sync.Mutex
	uploads    []string
	deletes    []string
	presignErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (f *fakeStore) Upload(_ context.Context, objectName string, _ []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, objectName)
	return nil
}

func (f *fakeStore) Presign(_ context.Context, objectName string, _ time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://cdn.example.com/" + objectName, nil
}

func (f *fakeStore) Delete(_ context.Context, objectName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, objectName)
	return nil
}

// fakeGenerationRepo 模拟 FinalizeRun 的事务语义：条件扣减失败时整体回滚
type fakeGenerationRepo struct {
	mu      sync.Mutex
	balance int64
	nextID  uint64

	jobs    []*model.GenerationJob
	media   []*model.Media
	txns    []*model.CreditTransaction
	lastErr error
}

func (f *fakeGenerationRepo) FinalizeRun(_ context.Context, job *model.GenerationJob, input *model.Media, outputs []*model.Media, txn *model.CreditTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.balance < job.CreditsConsumed {
		f.lastErr = repository.ErrInsufficientBalance
		return repository.ErrInsufficientBalance
	}
	f.balance -= job.CreditsConsumed

	f.nextID++
	job.ID = f.nextID
	f.jobs = append(f.jobs, job)

	if input != nil {
		f.nextID++
		input.ID = f.nextID
		input.JobID = &job.ID
		f.media = append(f.media, input)
	}
	for _, m := range outputs {
		f.nextID++
		m.ID = f.nextID
		m.JobID = &job.ID
		if input != nil {
			m.OriginID = &input.ID
		}
		f.media = append(f.media, m)
	}

	txn.UserID = job.UserID
	f.txns = append(f.txns, txn)
	return nil
}

func (f *fakeGenerationRepo) GetJobById(_ context.Context, id uint64) (*model.GenerationJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, job := range f.jobs {
		if job.ID == id {
			return job, nil
		}
	}
	return nil, nil
}

func (f *fakeGenerationRepo) ListJobsByUser(context.Context, uint64, int, int) ([]*model.GenerationJob, int64, error) {
	return nil, 0, nil
}

func (f *fakeGenerationRepo) TrimJobs(context.Context, int) error {
	return nil
}

type fakeCreditService struct {
	balance int64
}

func (f *fakeCreditService) GetBalance(context.Context, uint64) (int64, error) {
	return f.balance, nil
}

func (f *fakeCreditService) HasSufficientCredits(_ context.Context, _ uint64, required int64) (bool, error) {
	return f.balance >= required, nil
}

func (f *fakeCreditService) QuoteGenerationCost(numOutputs int) int64 {
	if numOutputs < 1 {
		numOutputs = 1
	}
	return config.Cfg.Credits.CostPerOutput * int64(numOutputs)
}

func (f *fakeCreditService) TopUp(context.Context, uint64, int64) error {
	return nil
}

func (f *fakeCreditService) ListTransactions(context.Context, uint64, int, int) ([]*dto.TransactionDTO, int64, error) {
	return nil, 0, nil
}

func newTestGenerationService(gen *fakeGenerator, store *fakeStore, repo *fakeGenerationRepo, credits *fakeCreditService) GenerationService {
	return NewGenerationService(gen, store, repo, credits, nil, nil, nil)
}

func TestRunRemoteFailureLeavesNoWrites(t *testing.T) {
	gen := &fakeGenerator{err: &comfy.RemoteJobError{JobID: "j", Status: comfy.StatusTimedOut}}
	store := newFakeStore()
	repo := &fakeGenerationRepo{balance: 100}
	svc := newTestGenerationService(gen, store, repo, &fakeCreditService{balance: 100})

	_, err := svc.Run(context.Background(), "task-1", taskqueue.GenerationPayload{
		UserID:         1,
		JobKind:        consts.JobKindTextToImage,
		PositivePrompt: "a cat",
		NumOutputs:     2,
	})

	require.Error(t, err)
	assert.Empty(t, store.uploads)
	assert.Empty(t, repo.jobs)
	assert.Empty(t, repo.media)
	assert.Empty(t, repo.txns)
	assert.Equal(t, int64(100), repo.balance)
}

func TestRunPersistsOnlyReceivedArtifacts(t *testing.T) {
	// 请求 3 张但远端只返回 2 张
	gen := &fakeGenerator{artifacts: [][]byte{[]byte("a"), []byte("b")}}
	store := newFakeStore()
	repo := &fakeGenerationRepo{balance: 100}
	svc := newTestGenerationService(gen, store, repo, &fakeCreditService{balance: 100})

	result, err := svc.Run(context.Background(), "task-2", taskqueue.GenerationPayload{
		UserID:         1,
		JobKind:        consts.JobKindTextToImage,
		PositivePrompt: "a cat",
		NumOutputs:     3,
	})
	require.NoError(t, err)

	require.Len(t, repo.jobs, 1)
	assert.Len(t, repo.media, 2)
	assert.Len(t, store.uploads, 2)

	// 扣费按报价而非实收数量
	job := repo.jobs[0]
	assert.Equal(t, int64(15), job.CreditsConsumed)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	require.NotNil(t, job.CompletedAt)

	// 一条负数流水，金额与扣减一致
	require.Len(t, repo.txns, 1)
	assert.Equal(t, int64(-15), repo.txns[0].Amount)
	assert.Equal(t, consts.TxTypeGeneration, repo.txns[0].TxType)
	assert.Equal(t, int64(85), repo.balance)

	generated := result.(*dto.GenerationResultDTO)
	assert.Equal(t, job.ID, generated.JobID)
	assert.Equal(t, int64(15), generated.CreditsConsumed)
	require.Len(t, generated.Media, 2)
	assert.Contains(t, generated.Media[0].URL, "https://cdn.example.com/")
}

func TestRunImageToImageLineage(t *testing.T) {
	gen := &fakeGenerator{artifacts: [][]byte{[]byte("a"), []byte("b"), []byte("c")}}
	store := newFakeStore()
	repo := &fakeGenerationRepo{balance: 100}
	svc := newTestGenerationService(gen, store, repo, &fakeCreditService{balance: 100})

	inputImage := base64.StdEncoding.EncodeToString([]byte{0x89, 0x50, 0x4E, 0x47})
	_, err := svc.Run(context.Background(), "task-3", taskqueue.GenerationPayload{
		UserID:         7,
		JobKind:        consts.JobKindImageToImage,
		PositivePrompt: "a dog",
		NumOutputs:     3,
		InputImage:     inputImage,
	})
	require.NoError(t, err)

	// 1 条输入媒体 + 3 条派生媒体，共享同一个任务
	require.Len(t, repo.media, 4)
	require.Len(t, repo.jobs, 1)
	jobID := repo.jobs[0].ID

	input := repo.media[0]
	assert.Nil(t, input.OriginID)
	require.NotNil(t, input.JobID)
	assert.Equal(t, jobID, *input.JobID)

	for _, derived := range repo.media[1:] {
		require.NotNil(t, derived.OriginID)
		assert.Equal(t, input.ID, *derived.OriginID)
		require.NotNil(t, derived.JobID)
		assert.Equal(t, jobID, *derived.JobID)
	}
}

func TestRunInvalidInputImage(t *testing.T) {
	gen := &fakeGenerator{artifacts: [][]byte{[]byte("a")}}
	store := newFakeStore()
	repo := &fakeGenerationRepo{balance: 100}
	svc := newTestGenerationService(gen, store, repo, &fakeCreditService{balance: 100})

	_, err := svc.Run(context.Background(), "task-4", taskqueue.GenerationPayload{
		UserID:     1,
		JobKind:    consts.JobKindImageToImage,
		NumOutputs: 1,
		InputImage: "not-valid-base64!!!",
	})
	require.ErrorIs(t, err, ErrInputImageInvalid)
	assert.Zero(t, gen.calls)
}

func TestRunInsufficientBalanceRollsBack(t *testing.T) {
	gen := &fakeGenerator{artifacts: [][]byte{[]byte("a")}}
	store := newFakeStore()
	repo := &fakeGenerationRepo{balance: 3}
	svc := newTestGenerationService(gen, store, repo, &fakeCreditService{balance: 3})

	_, err := svc.Run(context.Background(), "task-5", taskqueue.GenerationPayload{
		UserID:         1,
		JobKind:        consts.JobKindTextToImage,
		PositivePrompt: "a cat",
		NumOutputs:     1,
	})
	require.ErrorIs(t, err, ErrInsufficientCredits)

	assert.Empty(t, repo.jobs)
	assert.Empty(t, repo.txns)
	assert.Equal(t, int64(3), repo.balance)
	// 落库失败后已上传对象被回收
	assert.Equal(t, len(store.uploads), len(store.deletes))
}

func TestRunDebitRace(t *testing.T) {
	// 余额 5，两个并发的 5 分任务：恰好一个成功
	repo := &fakeGenerationRepo{balance: 5}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			gen := &fakeGenerator{artifacts: [][]byte{[]byte("a")}}
			svc := newTestGenerationService(gen, newFakeStore(), repo, &fakeCreditService{balance: 5})
			_, errs[idx] = svc.Run(context.Background(), "task-race", taskqueue.GenerationPayload{
				UserID:         1,
				JobKind:        consts.JobKindTextToImage,
				PositivePrompt: "a cat",
				NumOutputs:     1,
			})
		}(i)
	}
	wg.Wait()

	var success, insufficient int
	for _, err := range errs {
		if err == nil {
			success++
		} else if errors.Is(err, ErrInsufficientCredits) {
			insufficient++
		}
	}
	assert.Equal(t, 1, success)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, int64(0), repo.balance)
	assert.Len(t, repo.jobs, 1)
	assert.Len(t, repo.txns, 1)
}

func TestRunPresignFailureDegradesToEmptyURL(t *testing.T) {
	gen := &fakeGenerator{artifacts: [][]byte{[]byte("a")}}
	store := newFakeStore()
	store.presignErr = errors.New("签名服务不可用")
	repo := &fakeGenerationRepo{balance: 100}
	svc := newTestGenerationService(gen, store, repo, &fakeCreditService{balance: 100})

	result, err := svc.Run(context.Background(), "task-6", taskqueue.GenerationPayload{
		UserID:         1,
		JobKind:        consts.JobKindTextToImage,
		PositivePrompt: "a cat",
		NumOutputs:     1,
	})

	// 事务已提交、扣费已发生，签名失败不应把任务报成失败
	require.NoError(t, err)
	require.Len(t, repo.jobs, 1)
	require.Len(t, repo.txns, 1)
	assert.Equal(t, int64(95), repo.balance)

	generated := result.(*dto.GenerationResultDTO)
	require.Len(t, generated.Media, 1)
	assert.Empty(t, generated.Media[0].URL)
}

func TestGetJobOwnership(t *testing.T) {
	repo := &fakeGenerationRepo{
		jobs: []*model.GenerationJob{
			{ID: 1, UserID: 7, JobKind: consts.JobKindTextToImage, Status: model.JobStatusCompleted, CreditsConsumed: 5, CreatedAt: time.Now()},
		},
	}
	svc := newTestGenerationService(&fakeGenerator{}, newFakeStore(), repo, &fakeCreditService{})

	job, err := svc.GetJob(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), job.ID)
	assert.Equal(t, int64(5), job.CreditsConsumed)

	// 他人的任务和不存在的任务都按不存在处理
	_, err = svc.GetJob(context.Background(), 8, 1)
	require.ErrorIs(t, err, ErrJobNotFound)

	_, err = svc.GetJob(context.Background(), 7, 99)
	require.ErrorIs(t, err, ErrJobNotFound)
}

type fakeStatusReader struct {
	status *taskqueue.TaskStatus
}

func (f *fakeStatusReader) Get(context.Context, string) (*taskqueue.TaskStatus, error) {
	return f.status, nil
}

type fakeAuditRepo struct {
	records map[string]*mongo.JobAuditModel
}

func (f *fakeAuditRepo) Record(_ context.Context, audit *mongo.JobAuditModel) error {
	f.records[audit.TaskID] = audit
	return nil
}

func (f *fakeAuditRepo) GetByTaskID(_ context.Context, taskID string) (*mongo.JobAuditModel, error) {
	return f.records[taskID], nil
}

func TestGetTaskStatusFallsBackToAudit(t *testing.T) {
	audits := &fakeAuditRepo{records: map[string]*mongo.JobAuditModel{
		"expired-task": {TaskID: "expired-task", Outcome: "failed", ErrorText: "远端超时"},
	}}
	svc := NewGenerationService(nil, nil, nil, nil, nil, &fakeStatusReader{}, audits)

	// Redis 状态过期后从审计记录取终态
	status, err := svc.GetTaskStatus(context.Background(), "expired-task")
	require.NoError(t, err)
	assert.Equal(t, "failed", status.Status)
	assert.Equal(t, "远端超时", status.Error)

	_, err = svc.GetTaskStatus(context.Background(), "never-seen")
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestGetTaskStatusPrefersLiveStatus(t *testing.T) {
	reader := &fakeStatusReader{status: &taskqueue.TaskStatus{Status: taskqueue.StatusProcessing}}
	audits := &fakeAuditRepo{records: map[string]*mongo.JobAuditModel{}}
	svc := NewGenerationService(nil, nil, nil, nil, nil, reader, audits)

	status, err := svc.GetTaskStatus(context.Background(), "task-live")
	require.NoError(t, err)
	assert.Equal(t, taskqueue.StatusProcessing, status.Status)
}
