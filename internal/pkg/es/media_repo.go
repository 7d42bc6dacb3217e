package es

import (
	"context"
	"errors"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"
	"github.com/goccy/go-json"
)

type MediaRepo interface {
	SearchPublic(ctx context.Context, queryText string, from, size int) ([]*MediaES, error)
	IndexMedia(ctx context.Context, media *MediaES) error
	DeleteMedia(ctx context.Context, id uint64) error
}

type MediaRepoImpl struct {
	client *elasticsearch.TypedClient
}

func NewMediaRepo(client *elasticsearch.TypedClient) MediaRepo {
	return &MediaRepoImpl{client: client}
}

// SearchPublic 在公开媒体的提示词和标签上做全文检索
func (s *MediaRepoImpl) SearchPublic(ctx context.Context, queryText string, from, size int) ([]*MediaES, error) {
	req := s.client.Search().
		Index(MediaIndex).
		Query(&types.Query{
			Bool: &types.BoolQuery{
				Must: []types.Query{
					{
						MultiMatch: &types.MultiMatchQuery{
							Query:  queryText,
							Fields: []string{"positive_prompt^2", "tags^2", "sd_model"},
						},
					},
				},
				Filter: []types.Query{
					{
						Term: map[string]types.TermQuery{
							"is_public": {Value: true},
						},
					},
				},
			},
		}).
		Sort(types.SortOptions{SortOptions: map[string]types.FieldSort{
			"created_at": {Order: &sortorder.Desc},
		}}).
		From(from).
		Size(size)

	resp, err := req.Do(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*MediaES, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		if hit.Source_ == nil {
			continue
		}
		var media MediaES
		if err = json.Unmarshal(hit.Source_, &media); err != nil {
			continue
		}
		results = append(results, &media)
	}
	return results, nil
}

func (s *MediaRepoImpl) IndexMedia(ctx context.Context, media *MediaES) error {
	docID := strconv.FormatUint(media.ID, 10)

	_, err := s.client.Index(MediaIndex).
		Id(docID).
		Document(media).
		Do(ctx)

	return err
}

func (s *MediaRepoImpl) DeleteMedia(ctx context.Context, id uint64) error {
	docID := strconv.FormatUint(id, 10)

	_, err := s.client.Delete(MediaIndex, docID).Do(ctx)

	if err != nil {
		var e *types.ElasticsearchError
		if errors.As(err, &e) {
			if e.Status == NotFoundCode {
				return nil
			}
		}
		return err
	}

	return nil
}
