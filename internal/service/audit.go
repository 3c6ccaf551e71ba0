package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/hms-api/internal/models"
)

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// recordAudit writes a user lifecycle entry. Failures are logged and never
// reach the caller.
func recordAudit(ctx context.Context, audit auditLogger, logger *zap.Logger, action, resourceID string, meta models.RequestMeta, values interface{}) {
	if audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:    action,
		Resource:  models.AuditResourceUser,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	switch {
	case meta.ActorID != "":
		actor := meta.ActorID
		entry.UserID = &actor
	case resourceID != "" && action != models.AuditActionUserDelete:
		entry.UserID = &resourceID
	}
	if values != nil {
		payload, err := json.Marshal(values)
		if err != nil {
			logger.Warn("failed to encode audit values", zap.String("action", action), zap.Error(err))
		} else {
			entry.NewValues = payload
		}
	}
	if err := audit.CreateAuditLog(ctx, entry); err != nil {
		logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
