package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/solpolar1990-debug/ozon-price-tracker/database"
	"github.com/solpolar1990-debug/ozon-price-tracker/models"
)

type UserRepository struct{}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// UpsertUser registers a Telegram user or refreshes their profile fields
func (r *UserRepository) UpsertUser(ctx context.Context, telegramID, username, firstName, lastName string) (*models.User, error) {
	query := `
		INSERT INTO users (id, telegram_id, username, first_name, last_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (telegram_id) DO UPDATE
		SET username = EXCLUDED.username, first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name
		RETURNING id, telegram_id, username, first_name, last_name, created_at
	`

	var user models.User
	err := database.DB.QueryRowContext(ctx, query, uuid.NewString(), telegramID, username, firstName, lastName, time.Now()).Scan(
		&user.ID, &user.TelegramID, &user.Username, &user.FirstName, &user.LastName, &user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %v", err)
	}

	return &user, nil
}

// GetUserByTelegramID returns the user registered under a Telegram chat ID
func (r *UserRepository) GetUserByTelegramID(ctx context.Context, telegramID string) (*models.User, error) {
	query := `
		SELECT id, telegram_id, username, first_name, last_name, created_at
		FROM users
		WHERE telegram_id = $1
	`

	var user models.User
	err := database.DB.QueryRowContext(ctx, query, telegramID).Scan(
		&user.ID, &user.TelegramID, &user.Username, &user.FirstName, &user.LastName, &user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %v", err)
	}

	return &user, nil
}

// CountUsers returns the total number of registered users
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := database.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %v", err)
	}
	return count, nil
}
