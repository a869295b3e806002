package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"pennywise/internal/logger"
	"pennywise/internal/models"
)

type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log appends one row to audit_logs. A failed write is logged and dropped
// so the request that triggered it still succeeds.
func (s *auditService) Log(action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	log := logger.With("action", action, "resource_type", resourceType, "resource_id", resourceID)

	entry := &models.AuditLog{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      encodeChanges(changes, log.Errorw),
	}
	if err := s.db.Create(entry).Error; err != nil {
		log.Errorw("failed to write audit entry", "error", err)
	}
}

// encodeChanges renders the change set as JSON. Empty sets are stored as "".
func encodeChanges(changes map[string]any, report func(string, ...any)) string {
	if len(changes) == 0 {
		return ""
	}
	data, err := json.Marshal(changes)
	if err != nil {
		report("failed to encode audit changes", "error", err)
		return "{}"
	}
	return string(data)
}
