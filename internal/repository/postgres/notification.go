package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/laimu/erptracker/internal/mapper"
	"github.com/laimu/erptracker/internal/models"
)

type NotificationStore struct {
	pool *pgxpool.Pool
}

func NewNotificationStore(pool *pgxpool.Pool) *NotificationStore {
	return &NotificationStore{pool: pool}
}

// ListForUser returns the recipient's notifications, newest first.
func (s *NotificationStore) ListForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, title, message, type, is_read, link, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC`

	return collect(ctx, s.pool, "notifications", query, []any{userID}, func(row pgx.Row) (models.Notification, error) {
		var r mapper.NotificationRow
		err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.Message, &r.Type, &r.IsRead, &r.Link, &r.CreatedAt)
		if err != nil {
			return models.Notification{}, err
		}
		return mapper.MapNotification(r), nil
	})
}

func (s *NotificationStore) MarkRead(ctx context.Context, userID, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *NotificationStore) Delete(ctx context.Context, userID, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete notification: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
