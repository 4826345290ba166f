// internal/models/audit.go
package models

import (
	"github.com/google/uuid"
)

// AuditLog records a mutating API request for after-the-fact review. Rows
// are written asynchronously and are not part of any request's correctness.
type AuditLog struct {
	BaseModel
	ActorType    ActorType  `json:"actor_type" gorm:"type:varchar(20);not null;index"`
	ActorID      *uuid.UUID `json:"actor_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	RequestID    string     `json:"request_id" gorm:"size:16"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"type:text"`
	Payload      JSONB      `json:"payload" gorm:"type:jsonb"`
}
