package service

import (
	"Atelier/internal/api/config"
	"Atelier/internal/api/dto"
	"Atelier/internal/model"
	"Atelier/internal/pkg/comfy"
	"Atelier/internal/pkg/consts"
	"Atelier/internal/pkg/llm"
	"Atelier/internal/pkg/minio"
	"Atelier/internal/pkg/taskqueue"
	"Atelier/internal/pkg/util"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	log "log/slog"
	"math/rand"
	"strings"
	"time"

	"Atelier/internal/pkg/mongo"
	"Atelier/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ArtifactGenerator 远端生成能力的抽象，由 comfy.Generator 实现
type ArtifactGenerator interface {
	Generate(ctx context.Context, p comfy.GenerateParams) ([][]byte, error)
	DefaultSdModel(kind string) string
}

// ArtifactStore 产物存储的抽象，生产环境由 MinIO 实现
type ArtifactStore interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) error
	Presign(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, objectName string) error
}

type MinioArtifactStore struct{}

func NewMinioArtifactStore() ArtifactStore {
	return &MinioArtifactStore{}
}

func (s *MinioArtifactStore) Upload(ctx context.Context, objectName string, data []byte, contentType string) error {
	_, err := minio.UploadFile(ctx, objectName, bytes.NewReader(data), int64(len(data)), contentType)
	return err
}

func (s *MinioArtifactStore) Presign(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	return minio.PresignURL(ctx, objectName, expiry)
}

func (s *MinioArtifactStore) Delete(ctx context.Context, objectName string) error {
	return minio.DeleteFile(ctx, objectName)
}

type GenerationService interface {
	EnqueueText(ctx context.Context, userID uint64, req *dto.GenerateTextDTO) (*dto.EnqueueResultDTO, error)
	EnqueueImage(ctx context.Context, userID uint64, req *dto.GenerateMediaDTO) (*dto.EnqueueResultDTO, error)
	GetTaskStatus(ctx context.Context, taskID string) (*dto.TaskStatusDTO, error)
	GetJob(ctx context.Context, userID uint64, jobID uint64) (*dto.JobDTO, error)
	ListJobs(ctx context.Context, userID uint64, page, pageSize int) (*dto.PageDTO, error)
	Run(ctx context.Context, taskID string, payload taskqueue.GenerationPayload) (any, error)
}

// TaskStatusReader 任务状态的读取端，由 taskqueue.StatusStore 实现
type TaskStatusReader interface {
	Get(ctx context.Context, taskID string) (*taskqueue.TaskStatus, error)
}

type GenerationServiceImpl struct {
	generator      ArtifactGenerator
	store          ArtifactStore
	generationRepo repository.GenerationRepo
	creditService  CreditService
	producer       taskqueue.Producer
	status         TaskStatusReader
	auditRepo      mongo.JobAuditRepo
}

func NewGenerationService(
	generator ArtifactGenerator,
	store ArtifactStore,
	generationRepo repository.GenerationRepo,
	creditService CreditService,
	producer taskqueue.Producer,
	status TaskStatusReader,
	auditRepo mongo.JobAuditRepo,
) GenerationService {
	return &GenerationServiceImpl{
		generator:      generator,
		store:          store,
		generationRepo: generationRepo,
		creditService:  creditService,
		producer:       producer,
		status:         status,
		auditRepo:      auditRepo,
	}
}

func (s *GenerationServiceImpl) EnqueueText(ctx context.Context, userID uint64, req *dto.GenerateTextDTO) (*dto.EnqueueResultDTO, error) {
	if err := util.ValidateDTO(req); err != nil {
		return nil, err
	}

	numOutputs := req.NumOutputs
	if numOutputs < 1 {
		numOutputs = 1
	}

	if err := s.precheckCredits(ctx, userID, numOutputs); err != nil {
		return nil, err
	}

	taskID, err := s.producer.Enqueue(ctx, consts.TaskGenerateMedia, &taskqueue.GenerationPayload{
		UserID:         userID,
		JobKind:        consts.JobKindTextToImage,
		PositivePrompt: req.PositivePrompt,
		NegativePrompt: req.NegativePrompt,
		NumOutputs:     numOutputs,
		Enhance:        req.Enhance,
	})
	if err != nil {
		return nil, err
	}
	return &dto.EnqueueResultDTO{TaskID: taskID}, nil
}

func (s *GenerationServiceImpl) EnqueueImage(ctx context.Context, userID uint64, req *dto.GenerateMediaDTO) (*dto.EnqueueResultDTO, error) {
	if err := util.ValidateDTO(req); err != nil {
		return nil, err
	}
	if req.InputImage == "" {
		return nil, ErrInputImageRequired
	}
	if _, err := base64.StdEncoding.DecodeString(req.InputImage); err != nil {
		return nil, ErrInputImageInvalid
	}

	numOutputs := req.NumOutputs
	if numOutputs < 1 {
		numOutputs = 1
	}

	if err := s.precheckCredits(ctx, userID, numOutputs); err != nil {
		return nil, err
	}

	taskID, err := s.producer.Enqueue(ctx, consts.TaskGenerateMedia, &taskqueue.GenerationPayload{
		UserID:         userID,
		JobKind:        consts.JobKindImageToImage,
		PositivePrompt: req.PositivePrompt,
		NegativePrompt: req.NegativePrompt,
		NumOutputs:     numOutputs,
		InputImage:     req.InputImage,
		Enhance:        req.Enhance,
	})
	if err != nil {
		return nil, err
	}
	return &dto.EnqueueResultDTO{TaskID: taskID}, nil
}

// precheckCredits 入队前的余额预检。预检只读不锁，真正的拦截在扣减语句上。
func (s *GenerationServiceImpl) precheckCredits(ctx context.Context, userID uint64, numOutputs int) error {
	cost := s.creditService.QuoteGenerationCost(numOutputs)
	enough, err := s.creditService.HasSufficientCredits(ctx, userID, cost)
	if err != nil {
		return err
	}
	if !enough {
		return ErrInsufficientCredits
	}
	return nil
}

func (s *GenerationServiceImpl) GetTaskStatus(ctx context.Context, taskID string) (*dto.TaskStatusDTO, error) {
	status, err := s.status.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if status == nil {
		// Redis 里的状态有 TTL，过期后回落到审计记录里的终态
		return s.taskStatusFromAudit(ctx, taskID)
	}

	result := &dto.TaskStatusDTO{
		TaskID: taskID,
		Status: status.Status,
		Error:  status.Error,
	}
	if len(status.Result) > 0 {
		result.Result = status.Result
	}
	return result, nil
}

func (s *GenerationServiceImpl) taskStatusFromAudit(ctx context.Context, taskID string) (*dto.TaskStatusDTO, error) {
	if s.auditRepo == nil {
		return nil, ErrTaskNotFound
	}

	audit, err := s.auditRepo.GetByTaskID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if audit == nil {
		return nil, ErrTaskNotFound
	}
	return &dto.TaskStatusDTO{
		TaskID: taskID,
		Status: audit.Outcome,
		Error:  audit.ErrorText,
	}, nil
}

// GetJob 查询单条生成任务，只允许本人查看
func (s *GenerationServiceImpl) GetJob(ctx context.Context, userID uint64, jobID uint64) (*dto.JobDTO, error) {
	job, err := s.generationRepo.GetJobById(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil || job.UserID != userID {
		return nil, ErrJobNotFound
	}
	return toJobDTO(job), nil
}

func (s *GenerationServiceImpl) ListJobs(ctx context.Context, userID uint64, page, pageSize int) (*dto.PageDTO, error) {
	jobs, total, err := s.generationRepo.ListJobsByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.JobDTO, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, toJobDTO(job))
	}

	return &dto.PageDTO{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Items:    items,
	}, nil
}

func toJobDTO(job *model.GenerationJob) *dto.JobDTO {
	item := &dto.JobDTO{
		ID:              job.ID,
		JobKind:         job.JobKind,
		Status:          job.Status,
		CreditsConsumed: job.CreditsConsumed,
		CreatedAt:       job.CreatedAt.Format(time.RFC3339),
	}
	if job.CompletedAt != nil {
		completedAt := job.CompletedAt.Format(time.RFC3339)
		item.CompletedAt = &completedAt
	}
	return item
}

// Run 消费端的生成编排。远端调用和对象存储写入都在数据库事务之前完成，
// 远端失败时不会留下任何任务、媒体或流水记录。
func (s *GenerationServiceImpl) Run(ctx context.Context, taskID string, payload taskqueue.GenerationPayload) (any, error) {
	positivePrompt := payload.PositivePrompt
	if payload.Enhance {
		positivePrompt = llm.EnhancePrompt(ctx, positivePrompt)
	}

	numOutputs := payload.NumOutputs
	if numOutputs < 1 {
		numOutputs = 1
	}
	cost := s.creditService.QuoteGenerationCost(numOutputs)

	var inputImage []byte
	if payload.JobKind == consts.JobKindImageToImage {
		if payload.InputImage == "" {
			return nil, ErrInputImageRequired
		}
		decoded, err := base64.StdEncoding.DecodeString(payload.InputImage)
		if err != nil {
			return nil, ErrInputImageInvalid
		}
		inputImage = decoded
	}

	seed := consts.SeedMin + rand.Int63n(consts.SeedMax-consts.SeedMin+1)

	artifacts, err := s.generator.Generate(ctx, comfy.GenerateParams{
		Kind:           payload.JobKind,
		PositivePrompt: positivePrompt,
		NegativePrompt: payload.NegativePrompt,
		NumOutputs:     numOutputs,
		Seed:           seed,
		InputImage:     inputImage,
	})
	if err != nil {
		s.audit(ctx, taskID, payload, "failed", err)
		return nil, err
	}
	if len(artifacts) == 0 {
		err = errors.New("远端任务成功但未返回任何产物")
		s.audit(ctx, taskID, payload, "failed", err)
		return nil, err
	}

	sdModel := s.generator.DefaultSdModel(payload.JobKind)
	uploaded := make([]string, 0, len(artifacts)+1)

	var inputMedia *model.Media
	if inputImage != nil {
		inputMedia, err = s.uploadArtifact(ctx, payload.UserID, inputImage, positivePrompt, payload.NegativePrompt, seed, sdModel)
		if err != nil {
			s.cleanupBlobs(ctx, uploaded)
			return nil, err
		}
		uploaded = append(uploaded, inputMedia.ObjectKey)
	}

	outputs := make([]*model.Media, 0, len(artifacts))
	for _, artifact := range artifacts {
		media, upErr := s.uploadArtifact(ctx, payload.UserID, artifact, positivePrompt, payload.NegativePrompt, seed, sdModel)
		if upErr != nil {
			s.cleanupBlobs(ctx, uploaded)
			return nil, upErr
		}
		uploaded = append(uploaded, media.ObjectKey)
		outputs = append(outputs, media)
	}

	now := time.Now()
	job := &model.GenerationJob{
		UserID:          payload.UserID,
		JobKind:         payload.JobKind,
		Status:          model.JobStatusCompleted,
		CreditsConsumed: cost,
		CompletedAt:     &now,
	}
	txn := &model.CreditTransaction{
		Amount:      -cost,
		TxType:      consts.TxTypeGeneration,
		Description: fmt.Sprintf("生成消耗（%s，%d张）", payload.JobKind, len(outputs)),
	}

	if err = s.generationRepo.FinalizeRun(ctx, job, inputMedia, outputs, txn); err != nil {
		s.cleanupBlobs(ctx, uploaded)
		s.audit(ctx, taskID, payload, "failed", err)
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, ErrInsufficientCredits
		}
		return nil, err
	}

	s.audit(ctx, taskID, payload, "completed", nil)

	// 事务已提交，扣费已经发生，签名失败只降级为无 URL 的结果，不把任务标记为失败
	mediaDTOs := make([]*dto.MediaDTO, 0, len(outputs))
	for _, media := range outputs {
		mediaDTOs = append(mediaDTOs, s.toMediaDTO(ctx, media))
	}

	return &dto.GenerationResultDTO{
		JobID:           job.ID,
		CreditsConsumed: job.CreditsConsumed,
		Media:           mediaDTOs,
	}, nil
}

// uploadArtifact 上传一份产物并组装待落库的媒体行，对象名按日期分目录
func (s *GenerationServiceImpl) uploadArtifact(ctx context.Context, userID uint64, data []byte, positivePrompt, negativePrompt string, seed int64, sdModel string) (*model.Media, error) {
	fileType, mime := util.DetectFileType(data)
	if fileType == "" {
		// 远端产物默认按 png 落盘
		fileType, mime = "png", "image/png"
	}
	width, height := util.ProbeImageSize(data)

	mediaType := consts.MediaTypeImage
	if strings.HasPrefix(mime, consts.MimePrefixVideo) {
		mediaType = consts.MediaTypeVideo
	}

	objectName := time.Now().Format("2006/01/02/") + uuid.NewString() + "." + fileType
	if err := s.store.Upload(ctx, objectName, data, mime); err != nil {
		return nil, err
	}

	return &model.Media{
		UserID:         userID,
		MediaType:      mediaType,
		FileType:       fileType,
		ObjectKey:      objectName,
		PositivePrompt: positivePrompt,
		NegativePrompt: negativePrompt,
		Seed:           seed,
		SdModel:        sdModel,
		Width:          width,
		Height:         height,
	}, nil
}

// cleanupBlobs 落库失败后尽力回收已上传的对象，失败只记日志
func (s *GenerationServiceImpl) cleanupBlobs(ctx context.Context, objectNames []string) {
	for _, objectName := range objectNames {
		if err := s.store.Delete(ctx, objectName); err != nil {
			log.WarnContext(ctx, "回收对象失败", "object", objectName, "err", err)
		}
	}
}

// audit 记录一次生成的终态到 Mongo，审计失败不影响主流程
func (s *GenerationServiceImpl) audit(ctx context.Context, taskID string, payload taskqueue.GenerationPayload, outcome string, runErr error) {
	if s.auditRepo == nil {
		return
	}

	audit := &mongo.JobAuditModel{
		TaskID:    taskID,
		UserID:    payload.UserID,
		JobKind:   payload.JobKind,
		Outcome:   outcome,
		CreatedAt: time.Now(),
	}
	if runErr != nil {
		audit.ErrorText = runErr.Error()
		var remoteErr *comfy.RemoteJobError
		if errors.As(runErr, &remoteErr) {
			audit.Record = remoteErr.Record
		}
	}

	if err := s.auditRepo.Record(ctx, audit); err != nil {
		log.WarnContext(ctx, "任务审计写入失败", "task_id", taskID, "err", err)
	}
}

func (s *GenerationServiceImpl) toMediaDTO(ctx context.Context, media *model.Media) *dto.MediaDTO {
	expiry := time.Duration(config.Cfg.Credits.PresignTTLMinute) * time.Minute
	url, err := s.store.Presign(ctx, media.ObjectKey, expiry)
	if err != nil {
		log.WarnContext(ctx, "生成结果签名失败", "object", media.ObjectKey, "err", err)
		url = ""
	}

	return &dto.MediaDTO{
		ID:             media.ID,
		UserID:         media.UserID,
		MediaType:      media.MediaType,
		FileType:       media.FileType,
		URL:            url,
		PositivePrompt: media.PositivePrompt,
		NegativePrompt: media.NegativePrompt,
		Seed:           media.Seed,
		SdModel:        media.SdModel,
		Width:          media.Width,
		Height:         media.Height,
		IsPublic:       media.IsPublic,
		OriginID:       media.OriginID,
		JobID:          media.JobID,
		CreatedAt:      media.CreatedAt.Format(time.RFC3339),
	}
}
