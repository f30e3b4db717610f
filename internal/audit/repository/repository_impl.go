package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/incentra/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Insert appends one entry. The trail is append-only; there is no
// update or delete path.
func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Create(entry).Error
}

// List walks the trail newest-first with a (created_at, id) keyset
// cursor. One extra row beyond the limit is fetched so the caller can
// tell whether another page exists.
func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	stmt := applyFilter(db.WithContext(ctx).Model(&domain.AuditLog{}), filter).
		Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	var entries []*domain.AuditLog
	if err := stmt.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func applyFilter(stmt *gorm.DB, filter domain.ListFilter) *gorm.DB {
	stmt = stmt.Where("org_id = ?", filter.OrgID)

	exact := map[string]string{
		"action":      filter.Action,
		"target_type": filter.TargetType,
		"target_id":   filter.TargetID,
		"actor_type":  filter.ActorType,
	}
	for column, value := range exact {
		if value = strings.TrimSpace(value); value != "" {
			stmt = stmt.Where(column+" = ?", value)
		}
	}

	if filter.StartAt != nil {
		stmt = stmt.Where("created_at >= ?", filter.StartAt.UTC())
	}
	if filter.EndAt != nil {
		stmt = stmt.Where("created_at <= ?", filter.EndAt.UTC())
	}
	if cur := filter.Cursor; cur != nil {
		stmt = stmt.Where("created_at < ? OR (created_at = ? AND id < ?)",
			cur.CreatedAt, cur.CreatedAt, cur.ID)
	}
	return stmt
}
