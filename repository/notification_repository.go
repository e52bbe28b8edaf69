package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/solpolar1990-debug/ozon-price-tracker/database"
	"github.com/solpolar1990-debug/ozon-price-tracker/models"
)

type NotificationRepository struct{}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

// RecordNotification persists a delivered price-change alert
func (r *NotificationRepository) RecordNotification(ctx context.Context, n models.Notification) error {
	query := `
		INSERT INTO notifications (product_id, old_price, new_price, percent_change, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := database.DB.ExecContext(ctx, query, n.ProductID, n.OldPrice, n.NewPrice, n.PercentChange, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record notification: %v", err)
	}

	return nil
}

// GetNotificationsByProduct returns the alert history of one product
func (r *NotificationRepository) GetNotificationsByProduct(ctx context.Context, productID string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, product_id, old_price, new_price, percent_change, created_at
		FROM notifications
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := database.DB.QueryContext(ctx, query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %v", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.ProductID, &n.OldPrice, &n.NewPrice, &n.PercentChange, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %v", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// CountNotifications returns the total number of delivered alerts
func (r *NotificationRepository) CountNotifications(ctx context.Context) (int, error) {
	var count int
	err := database.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %v", err)
	}
	return count, nil
}
