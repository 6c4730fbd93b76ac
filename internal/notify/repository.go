package notify

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for notifications.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a notification and returns its ID.
func (r *Repository) Insert(ctx context.Context, n Notification) (int64, error) {
	const query = `INSERT INTO notifications (vendor_id, user_id, event_type, entity_type, entity_id, message, read, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW())
	RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, query, n.VendorID, n.UserID, n.EventType, n.EntityType, n.EntityID, n.Message).Scan(&id)
	return id, err
}

// ListForUser returns a user's notifications, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]Notification, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	const query = `SELECT id, vendor_id, user_id, event_type, entity_type, entity_id, message, read, created_at
	FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.VendorID, &n.UserID, &n.EventType, &n.EntityType, &n.EntityID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}

// MarkRead flags a user's notification as read.
func (r *Repository) MarkRead(ctx context.Context, id, userID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindVendorUser returns the portal login for a vendor, if any.
func (r *Repository) FindVendorUser(ctx context.Context, vendorID int64) (userID int64, email string, err error) {
	const query = `SELECT id, email FROM users WHERE vendor_id = $1 AND role = 'vendor' AND is_active ORDER BY id LIMIT 1`
	err = r.pool.QueryRow(ctx, query, vendorID).Scan(&userID, &email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, "", ErrNotFound
		}
		return 0, "", err
	}
	return userID, email, nil
}
