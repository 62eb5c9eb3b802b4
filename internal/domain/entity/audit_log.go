package entity

import "time"

// Audit actions
const (
	AuditCreate    = "create"
	AuditUpdate    = "update"
	AuditDelete    = "delete"
	AuditImport    = "import"
	AuditExport    = "export"
	AuditFetch     = "fetch"
	AuditPublish   = "publish"
	AuditUnpublish = "unpublish"
)

// Actor identifies who triggered an operation
type Actor struct {
	UserID    string `bson:"userId"`
	IPAddress string `bson:"ipAddress,omitempty"`
	UserAgent string `bson:"userAgent,omitempty"`
}

// SystemActor is used for scheduler-initiated runs
var SystemActor = Actor{UserID: "system"}

// AuditLog is an append-only record of a mutation
type AuditLog struct {
	ID         string                 `bson:"_id,omitempty"`
	Action     string                 `bson:"action"`
	ModelName  string                 `bson:"modelName"`
	ObjectID   string                 `bson:"objectId"`
	ObjectRepr string                 `bson:"objectRepr"`
	Changes    map[string]interface{} `bson:"changes,omitempty"`
	Details    string                 `bson:"details,omitempty"`
	Actor      Actor                  `bson:"actor"`
	Timestamp  time.Time              `bson:"timestamp"`
}
