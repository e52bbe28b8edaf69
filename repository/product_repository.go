package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/solpolar1990-debug/ozon-price-tracker/database"
	"github.com/solpolar1990-debug/ozon-price-tracker/models"
)

const productColumns = "id, user_id, ozon_product_id, url, name, current_price, initial_price, image, last_checked_at, created_at"

type ProductRepository struct{}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{}
}

func scanProduct(row interface{ Scan(...interface{}) error }, p *models.Product) error {
	return row.Scan(
		&p.ID, &p.UserID, &p.OzonProductID, &p.URL, &p.Name,
		&p.CurrentPrice, &p.InitialPrice, &p.Image, &p.LastCheckedAt, &p.CreatedAt,
	)
}

// CreateProduct adds a product to a user's tracking list
func (r *ProductRepository) CreateProduct(ctx context.Context, userID, ozonProductID, url, name string, price int64, image string) (*models.Product, error) {
	query := `
		INSERT INTO products (id, user_id, ozon_product_id, url, name, current_price, initial_price, image, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7, $8)
		RETURNING ` + productColumns

	var product models.Product
	img := sql.NullString{String: image, Valid: image != ""}
	err := scanProduct(database.DB.QueryRowContext(ctx, query,
		uuid.NewString(), userID, ozonProductID, url, name, price, img, time.Now()), &product)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %v", err)
	}

	return &product, nil
}

// GetProductByID returns one tracked product
func (r *ProductRepository) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var product models.Product
	err := scanProduct(database.DB.QueryRowContext(ctx, query, id), &product)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product not found")
		}
		return nil, fmt.Errorf("failed to get product: %v", err)
	}

	return &product, nil
}

// FindByUserAndOzonID looks up a user's product by its canonical Ozon ID.
// Returns nil (no error) when the product is not tracked yet.
func (r *ProductRepository) FindByUserAndOzonID(ctx context.Context, userID, ozonProductID string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE user_id = $1 AND ozon_product_id = $2`

	var product models.Product
	err := scanProduct(database.DB.QueryRowContext(ctx, query, userID, ozonProductID), &product)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product: %v", err)
	}

	return &product, nil
}

// GetProductsByUser returns all products tracked by one user
func (r *ProductRepository) GetProductsByUser(ctx context.Context, userID string) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := database.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %v", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		if err := scanProduct(rows, &product); err != nil {
			return nil, fmt.Errorf("failed to scan product: %v", err)
		}
		products = append(products, product)
	}

	return products, rows.Err()
}

// AllForCheck returns every tracked product joined with its owner's
// Telegram chat ID, the working set of a full reconciliation run.
func (r *ProductRepository) AllForCheck(ctx context.Context) ([]models.TrackedProduct, error) {
	query := `
		SELECT p.id, p.user_id, p.ozon_product_id, p.url, p.name, p.current_price, p.initial_price,
		       p.image, p.last_checked_at, p.created_at, u.telegram_id
		FROM products p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at
	`

	rows, err := database.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get products for check: %v", err)
	}
	defer rows.Close()

	var products []models.TrackedProduct
	for rows.Next() {
		var tp models.TrackedProduct
		err := rows.Scan(
			&tp.ID, &tp.UserID, &tp.OzonProductID, &tp.URL, &tp.Name,
			&tp.CurrentPrice, &tp.InitialPrice, &tp.Image, &tp.LastCheckedAt, &tp.CreatedAt,
			&tp.TelegramID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %v", err)
		}
		products = append(products, tp)
	}

	return products, rows.Err()
}

// ByUser returns one user's products in the joined form used by checks
func (r *ProductRepository) ByUser(ctx context.Context, userID string) ([]models.TrackedProduct, error) {
	query := `
		SELECT p.id, p.user_id, p.ozon_product_id, p.url, p.name, p.current_price, p.initial_price,
		       p.image, p.last_checked_at, p.created_at, u.telegram_id
		FROM products p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1
		ORDER BY p.created_at
	`

	rows, err := database.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user products: %v", err)
	}
	defer rows.Close()

	var products []models.TrackedProduct
	for rows.Next() {
		var tp models.TrackedProduct
		err := rows.Scan(
			&tp.ID, &tp.UserID, &tp.OzonProductID, &tp.URL, &tp.Name,
			&tp.CurrentPrice, &tp.InitialPrice, &tp.Image, &tp.LastCheckedAt, &tp.CreatedAt,
			&tp.TelegramID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %v", err)
		}
		products = append(products, tp)
	}

	return products, rows.Err()
}

// ApplyCheckUpdate applies the partial mutation produced by a price check.
// Only the fields set on the update are written.
func (r *ProductRepository) ApplyCheckUpdate(ctx context.Context, upd models.ProductUpdate) error {
	sets := []string{"last_checked_at = $2"}
	args := []interface{}{upd.ID, upd.LastCheckedAt}

	if upd.CurrentPrice != nil {
		args = append(args, *upd.CurrentPrice)
		sets = append(sets, fmt.Sprintf("current_price = $%d", len(args)))
	}
	if upd.InitialPrice != nil {
		args = append(args, *upd.InitialPrice)
		sets = append(sets, fmt.Sprintf("initial_price = $%d", len(args)))
	}
	if upd.Name != nil {
		args = append(args, *upd.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}

	query := `UPDATE products SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
	if _, err := database.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update product: %v", err)
	}

	return nil
}

// AddPriceHistory appends one observed price point
func (r *ProductRepository) AddPriceHistory(ctx context.Context, productID string, price int64) error {
	query := `INSERT INTO price_history (product_id, price, checked_at) VALUES ($1, $2, $3)`

	if _, err := database.DB.ExecContext(ctx, query, productID, price, time.Now()); err != nil {
		return fmt.Errorf("failed to add price history: %v", err)
	}

	return nil
}

// GetPriceHistory returns the most recent price points for a product
func (r *ProductRepository) GetPriceHistory(ctx context.Context, productID string, limit int) ([]models.PriceHistory, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, product_id, price, checked_at
		FROM price_history
		WHERE product_id = $1
		ORDER BY checked_at DESC
		LIMIT $2
	`

	rows, err := database.DB.QueryContext(ctx, query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %v", err)
	}
	defer rows.Close()

	var history []models.PriceHistory
	for rows.Next() {
		var entry models.PriceHistory
		if err := rows.Scan(&entry.ID, &entry.ProductID, &entry.Price, &entry.CheckedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price history: %v", err)
		}
		history = append(history, entry)
	}

	return history, rows.Err()
}

// DeleteProduct removes a product from a user's tracking list
func (r *ProductRepository) DeleteProduct(ctx context.Context, id, userID string) error {
	result, err := database.DB.ExecContext(ctx, `DELETE FROM products WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %v", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete product: %v", err)
	}
	if affected == 0 {
		return fmt.Errorf("product not found")
	}

	return nil
}

// CountProducts returns the total number of tracked products
func (r *ProductRepository) CountProducts(ctx context.Context) (int, error) {
	var count int
	err := database.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %v", err)
	}
	return count, nil
}
