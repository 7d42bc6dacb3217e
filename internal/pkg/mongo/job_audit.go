package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JobAuditModel 每次远端生成的审计记录，保留原始终态负载便于排查
type JobAuditModel struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TaskID    string             `bson:"task_id" json:"taskId"`
	UserID    uint64             `bson:"user_id" json:"userId"`
	JobKind   string             `bson:"job_kind" json:"jobKind"`
	Outcome   string             `bson:"outcome" json:"outcome"` // completed / failed
	ErrorText string             `bson:"error_text" json:"errorText"`
	Record    map[string]any     `bson:"record" json:"record"` // 远端返回的原始终态记录
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
