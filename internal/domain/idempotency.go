package domain

import "time"

// Idempotency records the outcome of a previously processed unsafe request,
// keyed by (scope, key). Scope identifies the target collection, e.g.
// "messages:<recipientId>" or "replies:<questionId>". A retry carrying the same
// Idempotency-Key inside the TTL replays ResourceID instead of writing again.
type Idempotency struct {
	ID         string    `gorm:"type:TEXT NOT NULL;primaryKey"                           bson:"_id"`
	Scope      string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_key,priority:1" bson:"scope"`
	Key        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_scope_key,priority:2" bson:"key"`
	ResourceID string    `gorm:"type:TEXT NOT NULL"                                      bson:"resource_id"`
	Status     int       `gorm:"type:INTEGER NOT NULL"                                   bson:"status"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"                                 bson:"created_at"`
	ExpiresAt  time.Time `gorm:"not null;index"                                          bson:"expires_at"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
