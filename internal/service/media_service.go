package service

import (
	"Atelier/internal/api/config"
	"Atelier/internal/api/dto"
	"Atelier/internal/model"
	"Atelier/internal/pkg/consts"
	"Atelier/internal/pkg/es"
	"Atelier/internal/pkg/redis"
	"Atelier/internal/pkg/util"
	"context"
	"errors"
	log "log/slog"
	"strconv"
	"strings"
	"time"

	"Atelier/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MediaService interface {
	Upload(ctx context.Context, userID uint64, data []byte) (*dto.MediaDTO, error)
	ListMedia(ctx context.Context, userID uint64, req *dto.ListMediaDTO) (*dto.PageDTO, error)
	GetMedia(ctx context.Context, viewerID uint64, mediaID uint64) (*dto.MediaDTO, error)
	UpdateMedia(ctx context.Context, userID uint64, mediaID uint64, req *dto.UpdateMediaDTO) error
	DeleteMedia(ctx context.Context, userID uint64, mediaID uint64) error
	RateMedia(ctx context.Context, viewerID uint64, mediaID uint64, thumbUp bool) error
	AddComment(ctx context.Context, userID uint64, mediaID uint64, req *dto.AddCommentDTO) (*dto.CommentDTO, error)
	ListComments(ctx context.Context, mediaID uint64, page, pageSize int) (*dto.PageDTO, error)
	DeleteComment(ctx context.Context, userID uint64, commentID uint64) error
	SearchMedia(ctx context.Context, req *dto.SearchMediaDTO) (*dto.PageDTO, error)
	FlushViewCounts(ctx context.Context) error
}

type MediaServiceImpl struct {
	mediaRepo   repository.MediaRepo
	tagRepo     repository.TagRepo
	commentRepo repository.CommentRepo
	esRepo      es.MediaRepo
	store       ArtifactStore
}

func NewMediaService(
	mediaRepo repository.MediaRepo,
	tagRepo repository.TagRepo,
	commentRepo repository.CommentRepo,
	esRepo es.MediaRepo,
	store ArtifactStore,
) MediaService {
	return &MediaServiceImpl{
		mediaRepo:   mediaRepo,
		tagRepo:     tagRepo,
		commentRepo: commentRepo,
		esRepo:      esRepo,
		store:       store,
	}
}

// Upload 用户直传媒体，不经过生成链路
func (s *MediaServiceImpl) Upload(ctx context.Context, userID uint64, data []byte) (*dto.MediaDTO, error) {
	if len(data) == 0 {
		return nil, ErrFileNotSupported
	}

	fileType, mime := util.DetectFileType(data)
	width, height := util.ProbeImageSize(data)

	var mediaType string
	switch {
	case strings.HasPrefix(mime, consts.MimePrefixImage):
		mediaType = consts.MediaTypeImage
	case strings.HasPrefix(mime, consts.MimePrefixVideo):
		mediaType = consts.MediaTypeVideo
	default:
		return nil, ErrFileNotSupported
	}

	objectName := time.Now().Format("2006/01/02/") + uuid.NewString() + "." + fileType
	if err := s.store.Upload(ctx, objectName, data, mime); err != nil {
		return nil, err
	}

	media := &model.Media{
		UserID:    userID,
		MediaType: mediaType,
		FileType:  fileType,
		ObjectKey: objectName,
		Width:     width,
		Height:    height,
	}
	if err := s.mediaRepo.CreateMedia(ctx, media); err != nil {
		return nil, err
	}

	return s.toMediaDTO(ctx, media)
}

func (s *MediaServiceImpl) ListMedia(ctx context.Context, userID uint64, req *dto.ListMediaDTO) (*dto.PageDTO, error) {
	if err := util.ValidateDTO(req); err != nil {
		return nil, err
	}

	filter := repository.MediaFilter{
		MediaType: req.MediaType,
		IsPublic:  req.IsPublic,
	}
	list, total, err := s.mediaRepo.ListMediaByUser(ctx, userID, filter, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.MediaDTO, 0, len(list))
	for _, media := range list {
		item, dtoErr := s.toMediaDTO(ctx, media)
		if dtoErr != nil {
			return nil, dtoErr
		}
		items = append(items, item)
	}

	return &dto.PageDTO{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

func (s *MediaServiceImpl) GetMedia(ctx context.Context, viewerID uint64, mediaID uint64) (*dto.MediaDTO, error) {
	media, err := s.mediaRepo.GetMediaById(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if media == nil {
		return nil, ErrMediaNotFound
	}
	if media.UserID != viewerID && !media.IsPublic {
		return nil, ErrMediaNotFound
	}

	// 非本人浏览才计入浏览量，浏览量先进 Redis，由定时任务批量回写
	if media.UserID != viewerID {
		s.bumpViewCount(ctx, mediaID)
	}

	return s.toMediaDTO(ctx, media)
}

func (s *MediaServiceImpl) bumpViewCount(ctx context.Context, mediaID uint64) {
	if _, err := redis.IncrBy(ctx, consts.MediaViewKey+strconv.FormatUint(mediaID, 10), 1); err != nil {
		log.WarnContext(ctx, "浏览量计数失败", "media_id", mediaID, "err", err)
		return
	}
	if err := redis.SAdd(ctx, consts.MediaViewDirtyKey, mediaID); err != nil {
		log.WarnContext(ctx, "浏览量脏集合登记失败", "media_id", mediaID, "err", err)
	}
}

func (s *MediaServiceImpl) UpdateMedia(ctx context.Context, userID uint64, mediaID uint64, req *dto.UpdateMediaDTO) error {
	if err := util.ValidateDTO(req); err != nil {
		return err
	}

	media, err := s.mediaRepo.GetMediaById(ctx, mediaID)
	if err != nil {
		return err
	}
	if media == nil {
		return ErrMediaNotFound
	}
	if media.UserID != userID {
		return ErrMediaNotOwned
	}

	if req.PositivePrompt != nil {
		media.PositivePrompt = *req.PositivePrompt
	}
	if req.NegativePrompt != nil {
		media.NegativePrompt = *req.NegativePrompt
	}
	if req.IsPublic != nil {
		media.IsPublic = *req.IsPublic
	}

	if err = s.mediaRepo.UpdateMedia(ctx, media); err != nil {
		return err
	}

	if req.Tags != nil {
		tags, tagErr := s.tagRepo.GetOrCreateTags(ctx, req.Tags)
		if tagErr != nil {
			return tagErr
		}
		if err = s.mediaRepo.ReplaceTags(ctx, media, tags); err != nil {
			return err
		}
		media.Tags = make([]model.Tag, 0, len(tags))
		for _, tag := range tags {
			media.Tags = append(media.Tags, *tag)
		}
	}

	s.syncSearchIndex(ctx, media)
	return nil
}

// syncSearchIndex 公开媒体进索引，转私有就从索引里摘掉。索引失败不阻断主流程。
func (s *MediaServiceImpl) syncSearchIndex(ctx context.Context, media *model.Media) {
	if s.esRepo == nil {
		return
	}

	if !media.IsPublic {
		if err := s.esRepo.DeleteMedia(ctx, media.ID); err != nil {
			log.WarnContext(ctx, "媒体索引删除失败", "media_id", media.ID, "err", err)
		}
		return
	}

	tagNames := make([]string, 0, len(media.Tags))
	for _, tag := range media.Tags {
		tagNames = append(tagNames, tag.Name)
	}

	doc := &es.MediaES{
		ID:             media.ID,
		UserID:         media.UserID,
		MediaType:      media.MediaType,
		PositivePrompt: media.PositivePrompt,
		NegativePrompt: media.NegativePrompt,
		SdModel:        media.SdModel,
		Tags:           tagNames,
		IsPublic:       media.IsPublic,
		CreatedAt:      media.CreatedAt,
	}
	if err := s.esRepo.IndexMedia(ctx, doc); err != nil {
		log.WarnContext(ctx, "媒体索引写入失败", "media_id", media.ID, "err", err)
	}
}

func (s *MediaServiceImpl) DeleteMedia(ctx context.Context, userID uint64, mediaID uint64) error {
	media, err := s.mediaRepo.GetMediaById(ctx, mediaID)
	if err != nil {
		return err
	}
	if media == nil {
		return ErrMediaNotFound
	}
	if media.UserID != userID {
		return ErrMediaNotOwned
	}

	if err = s.mediaRepo.DeleteMedia(ctx, mediaID); err != nil {
		return err
	}

	// 行已删除，对象和索引的清理尽力而为
	if err = s.store.Delete(ctx, media.ObjectKey); err != nil {
		log.WarnContext(ctx, "对象删除失败", "object", media.ObjectKey, "err", err)
	}
	if s.esRepo != nil {
		if err = s.esRepo.DeleteMedia(ctx, mediaID); err != nil {
			log.WarnContext(ctx, "媒体索引删除失败", "media_id", mediaID, "err", err)
		}
	}
	return nil
}

func (s *MediaServiceImpl) RateMedia(ctx context.Context, viewerID uint64, mediaID uint64, thumbUp bool) error {
	media, err := s.mediaRepo.GetMediaById(ctx, mediaID)
	if err != nil {
		return err
	}
	if media == nil {
		return ErrMediaNotFound
	}
	if media.UserID != viewerID && !media.IsPublic {
		return ErrMediaNotFound
	}

	if err = s.mediaRepo.Rate(ctx, mediaID, thumbUp); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMediaNotFound
		}
		return err
	}
	return nil
}

func (s *MediaServiceImpl) AddComment(ctx context.Context, userID uint64, mediaID uint64, req *dto.AddCommentDTO) (*dto.CommentDTO, error) {
	if err := util.ValidateDTO(req); err != nil {
		return nil, err
	}

	media, err := s.mediaRepo.GetMediaById(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if media == nil {
		return nil, ErrMediaNotFound
	}
	if media.UserID != userID && !media.IsPublic {
		return nil, ErrMediaNotFound
	}

	comment := &model.Comment{
		MediaID: mediaID,
		UserID:  userID,
		Content: req.Content,
	}
	if err = s.commentRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	return &dto.CommentDTO{
		ID:        comment.ID,
		MediaID:   comment.MediaID,
		UserID:    comment.UserID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *MediaServiceImpl) ListComments(ctx context.Context, mediaID uint64, page, pageSize int) (*dto.PageDTO, error) {
	comments, total, err := s.commentRepo.ListComments(ctx, mediaID, page, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.CommentDTO, 0, len(comments))
	for _, comment := range comments {
		items = append(items, &dto.CommentDTO{
			ID:        comment.ID,
			MediaID:   comment.MediaID,
			UserID:    comment.UserID,
			Content:   comment.Content,
			CreatedAt: comment.CreatedAt.Format(time.RFC3339),
		})
	}

	return &dto.PageDTO{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Items:    items,
	}, nil
}

func (s *MediaServiceImpl) DeleteComment(ctx context.Context, userID uint64, commentID uint64) error {
	affected, err := s.commentRepo.DeleteComment(ctx, commentID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// SearchMedia 全文检索公开媒体，命中后回源数据库取最新数据
func (s *MediaServiceImpl) SearchMedia(ctx context.Context, req *dto.SearchMediaDTO) (*dto.PageDTO, error) {
	if err := util.ValidateDTO(req); err != nil {
		return nil, err
	}

	from := (req.Page - 1) * req.PageSize
	hits, err := s.esRepo.SearchPublic(ctx, req.Query, from, req.PageSize)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.MediaDTO, 0, len(hits))
	for _, hit := range hits {
		media, getErr := s.mediaRepo.GetMediaById(ctx, hit.ID)
		if getErr != nil {
			return nil, getErr
		}
		// 索引可能落后于删除或转私有
		if media == nil || !media.IsPublic {
			continue
		}
		item, dtoErr := s.toMediaDTO(ctx, media)
		if dtoErr != nil {
			return nil, dtoErr
		}
		items = append(items, item)
	}

	return &dto.PageDTO{
		Total:    int64(len(items)),
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

// FlushViewCounts 把 Redis 暂存的浏览量批量回写数据库，由定时任务调用
func (s *MediaServiceImpl) FlushViewCounts(ctx context.Context) error {
	dirty, err := redis.GetSet(ctx, consts.MediaViewDirtyKey)
	if err != nil {
		return err
	}
	if len(dirty) == 0 {
		return nil
	}

	counts := make(map[uint64]int64, len(dirty))
	for _, member := range dirty {
		mediaID, parseErr := strconv.ParseUint(member, 10, 64)
		if parseErr != nil {
			continue
		}

		key := consts.MediaViewKey + member
		raw, getErr := redis.GetValue(ctx, key)
		if getErr != nil || raw == "" {
			continue
		}
		delta, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil || delta <= 0 {
			continue
		}

		counts[mediaID] = delta
		if delErr := redis.DeleteKey(ctx, key); delErr != nil {
			log.WarnContext(ctx, "浏览量键清理失败", "key", key, "err", delErr)
		}
	}

	if err = redis.DeleteKey(ctx, consts.MediaViewDirtyKey); err != nil {
		log.WarnContext(ctx, "浏览量脏集合清理失败", "err", err)
	}
	if len(counts) == 0 {
		return nil
	}

	return s.mediaRepo.AddViewCounts(ctx, counts)
}

func (s *MediaServiceImpl) toMediaDTO(ctx context.Context, media *model.Media) (*dto.MediaDTO, error) {
	expiry := time.Duration(config.Cfg.Credits.PresignTTLMinute) * time.Minute
	url, err := s.store.Presign(ctx, media.ObjectKey, expiry)
	if err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(media.Tags))
	for _, tag := range media.Tags {
		tags = append(tags, tag.Name)
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
		ViewCount:      media.ViewCount,
		ThumbUpCount:   media.ThumbUpCount,
		ThumbDownCount: media.ThumbDownCount,
		OriginID:       media.OriginID,
		JobID:          media.JobID,
		Tags:           tags,
		CreatedAt:      media.CreatedAt.Format(time.RFC3339),
	}, nil
}
