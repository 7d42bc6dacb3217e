package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type JobAuditRepo interface {
	Record(ctx context.Context, audit *JobAuditModel) error
	GetByTaskID(ctx context.Context, taskID string) (*JobAuditModel, error)
}

type jobAuditRepoImpl struct {
	col *mongo.Collection
}

func NewJobAuditRepo(db *mongo.Database, collection string) JobAuditRepo {
	return &jobAuditRepoImpl{
		col: db.Collection(collection),
	}
}

func (s *jobAuditRepoImpl) Record(ctx context.Context, audit *JobAuditModel) error {
	_, err := s.col.InsertOne(ctx, audit)
	return err
}

func (s *jobAuditRepoImpl) GetByTaskID(ctx context.Context, taskID string) (*JobAuditModel, error) {
	var audit JobAuditModel
	err := s.col.FindOne(ctx, bson.M{"task_id": taskID}).Decode(&audit)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &audit, nil
}
