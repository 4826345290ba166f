// internal/store/postgres/audit.go
package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/utils"
)

type auditLogStore struct {
	db *gorm.DB
}

func (s *auditLogStore) Create(ctx context.Context, entry *models.AuditLog) error {
	return translate(s.db.WithContext(ctx).Create(entry).Error)
}

func (s *auditLogStore) List(ctx context.Context, params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if params.Search != "" {
		query = query.Where("action ILIKE ? OR resource_type ILIKE ?", "%"+params.Search+"%", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var entries []models.AuditLog
	query = utils.ApplySort(query, params, []string{"created_at", "action"})
	query = utils.ApplyPagination(query, params)
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, translate(err)
	}
	return entries, total, nil
}
