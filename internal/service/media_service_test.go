package service

import (
	"Atelier/internal/model"
	"Atelier/internal/pkg/consts"
	"Atelier/internal/repository"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMediaRepo struct {
	created []*model.Media
	nextID  uint64
}

func (f *fakeMediaRepo) CreateMedia(_ context.Context, media *model.Media) error {
	f.nextID++
	media.ID = f.nextID
	f.created = append(f.created, media)
	return nil
}

func (f *fakeMediaRepo) GetMediaById(context.Context, uint64) (*model.Media, error) {
	return nil, nil
}

func (f *fakeMediaRepo) ListMediaByUser(context.Context, uint64, repository.MediaFilter, int, int) ([]*model.Media, int64, error) {
	return nil, 0, nil
}

func (f *fakeMediaRepo) UpdateMedia(context.Context, *model.Media) error {
	return nil
}

func (f *fakeMediaRepo) ReplaceTags(context.Context, *model.Media, []*model.Tag) error {
	return nil
}

func (f *fakeMediaRepo) DeleteMedia(context.Context, uint64) error {
	return nil
}

func (f *fakeMediaRepo) Rate(context.Context, uint64, bool) error {
	return nil
}

func (f *fakeMediaRepo) AddViewCounts(context.Context, map[uint64]int64) error {
	return nil
}

func TestUploadDetectsMediaType(t *testing.T) {
	repo := &fakeMediaRepo{}
	store := newFakeStore()
	svc := NewMediaService(repo, nil, nil, nil, store)

	pngData := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}
	item, err := svc.Upload(context.Background(), 1, pngData)
	require.NoError(t, err)
	assert.Equal(t, consts.MediaTypeImage, item.MediaType)
	assert.Equal(t, "png", item.FileType)

	mp4Data := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'}
	item, err = svc.Upload(context.Background(), 1, mp4Data)
	require.NoError(t, err)
	assert.Equal(t, consts.MediaTypeVideo, item.MediaType)
	assert.Equal(t, "mp4", item.FileType)

	require.Len(t, repo.created, 2)
	assert.Len(t, store.uploads, 2)
}

func TestUploadRejectsUnknownFileType(t *testing.T) {
	repo := &fakeMediaRepo{}
	store := newFakeStore()
	svc := NewMediaService(repo, nil, nil, nil, store)

	_, err := svc.Upload(context.Background(), 1, []byte{0x00, 0x01, 0x02})
	require.ErrorIs(t, err, ErrFileNotSupported)

	// 不认识的字节不应产生任何对象或媒体行
	assert.Empty(t, store.uploads)
	assert.Empty(t, repo.created)
}
