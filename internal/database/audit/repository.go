package audit

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/docsafe/internal/entities"
)

const defaultLimit = 50

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Filter narrows a listing. Zero values match everything.
type Filter struct {
	UserID    string
	EventType entities.AuthEventType
	Status    entities.AuthEventStatus
	Limit     int
	Offset    int
}

// LogEvent saves an auth event to the database.
func (r *Repository) LogEvent(ctx context.Context, event *entities.AuthEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// GetEvents retrieves paginated events, most recent first, with the total
// number of matching rows.
func (r *Repository) GetEvents(ctx context.Context, f Filter) ([]entities.AuthEvent, int64, error) {
	var events []entities.AuthEvent
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.AuthEvent{})
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.EventType != "" {
		query = query.Where("event_type = ?", f.EventType)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}

// CountByType returns how many events of each type happened since the given time.
func (r *Repository) CountByType(ctx context.Context, since time.Time) (map[entities.AuthEventType]int64, error) {
	var rows []struct {
		EventType entities.AuthEventType
		Count     int64
	}
	err := r.db.WithContext(ctx).Model(&entities.AuthEvent{}).
		Select("event_type, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("event_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[entities.AuthEventType]int64, len(rows))
	for _, row := range rows {
		counts[row.EventType] = row.Count
	}
	return counts, nil
}

// DeleteOldEvents removes events older than the retention period.
// Returns the number of deleted events.
func (r *Repository) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&entities.AuthEvent{})
	return result.RowsAffected, result.Error
}
