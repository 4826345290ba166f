// internal/store/memory/audit.go
package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/keyward/keyward/internal/models"
	"github.com/keyward/keyward/internal/utils"
)

type auditLogStore struct {
	s *Store
}

func (as *auditLogStore) Create(ctx context.Context, entry *models.AuditLog) error {
	as.s.mu.Lock()
	defer as.s.mu.Unlock()

	as.s.prepare(&entry.BaseModel)
	as.s.auditLogs = append(as.s.auditLogs, *entry)
	return nil
}

func (as *auditLogStore) List(ctx context.Context, params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	as.s.mu.RLock()
	defer as.s.mu.RUnlock()

	var entries []models.AuditLog
	search := strings.ToLower(params.Search)
	for _, entry := range as.s.auditLogs {
		if search != "" &&
			!strings.Contains(strings.ToLower(entry.Action), search) &&
			!strings.Contains(strings.ToLower(entry.ResourceType), search) {
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		before := createdBefore(entries[i].CreatedAt, entries[i].ID, entries[j].CreatedAt, entries[j].ID)
		if params.Order == "asc" {
			return before
		}
		return !before
	})

	total := int64(len(entries))
	start, end := pageBounds(len(entries), params)
	return entries[start:end], total, nil
}
