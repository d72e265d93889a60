package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bellebook/catalog/internal/domain"
)

// ServiceRepository implements domain.ServiceRepository for PostgreSQL
type ServiceRepository struct {
	db *sql.DB
}

// NewServiceRepository creates a new ServiceRepository
func NewServiceRepository(db *sql.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

const serviceColumns = `id, owner_id, title, description, category, subcategory,
	price, location, is_mobile, is_active, rating, review_count`

// ReplaceAll atomically replaces the snapshot with a fresh set of records.
// The insertion position preserves the upstream order.
func (r *ServiceRepository) ReplaceAll(ctx context.Context, services []domain.Service) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM services`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	const batchSize = 100
	now := time.Now().UTC()

	for i := 0; i < len(services); i += batchSize {
		end := i + batchSize
		if end > len(services) {
			end = len(services)
		}

		batch := services[i:end]
		valueStrings := make([]string, 0, len(batch))
		valueArgs := make([]any, 0, len(batch)*14)

		for j, svc := range batch {
			base := len(valueArgs)
			placeholders := make([]string, 14)
			for k := range placeholders {
				placeholders[k] = fmt.Sprintf("$%d", base+k+1)
			}
			valueStrings = append(valueStrings, "("+strings.Join(placeholders, ", ")+")")

			valueArgs = append(valueArgs,
				svc.ID,
				svc.OwnerID.String(),
				svc.Title,
				svc.Description,
				svc.Category,
				svc.Subcategory,
				nullPrice(svc.Price),
				svc.Location,
				svc.IsMobile,
				svc.IsActive,
				svc.Rating,
				svc.ReviewCount,
				i+j,
				now,
			)
		}

		query := fmt.Sprintf(`INSERT INTO services (%s, position, synced_at) VALUES %s`,
			serviceColumns, strings.Join(valueStrings, ","))

		if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
			return fmt.Errorf("insert snapshot batch: %w", err)
		}
	}

	return tx.Commit()
}

// List retrieves the full snapshot in upstream order
func (r *ServiceRepository) List(ctx context.Context) ([]domain.Service, error) {
	query := fmt.Sprintf(`SELECT %s FROM services ORDER BY position`, serviceColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	services := make([]domain.Service, 0)
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}

	return services, rows.Err()
}

// Stream iterates the snapshot without loading it all into memory
func (r *ServiceRepository) Stream(ctx context.Context, fn func(*domain.Service) error) error {
	query := fmt.Sprintf(`SELECT %s FROM services ORDER BY position`, serviceColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("stream services: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return err
		}
		if err := fn(&svc); err != nil {
			return err
		}
	}

	return rows.Err()
}

// Categories returns distinct categories
func (r *ServiceRepository) Categories(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM services WHERE category <> '' ORDER BY category LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// Stats retrieves aggregate statistics
func (r *ServiceRepository) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(DISTINCT owner_id),
			COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_mobile THEN 1 ELSE 0 END), 0),
			AVG(rating) FILTER (WHERE rating > 0),
			AVG(price)
		FROM services`

	var (
		stats     domain.CatalogStats
		avgRating sql.NullFloat64
		avgPrice  sql.NullFloat64
	)

	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalServices,
		&stats.TotalOwners,
		&stats.ActiveServices,
		&stats.MobileServices,
		&avgRating,
		&avgPrice,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog stats: %w", err)
	}

	if avgRating.Valid {
		stats.AvgRating = &avgRating.Float64
	}
	if avgPrice.Valid {
		stats.AvgPrice = &avgPrice.Float64
	}

	return &stats, nil
}

func nullPrice(p domain.FlexFloat) any {
	if !p.Valid {
		return nil
	}
	return p.Val
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanService(row rowScanner) (domain.Service, error) {
	var (
		svc     domain.Service
		ownerID string
		price   sql.NullFloat64
	)

	err := row.Scan(
		&svc.ID,
		&ownerID,
		&svc.Title,
		&svc.Description,
		&svc.Category,
		&svc.Subcategory,
		&price,
		&svc.Location,
		&svc.IsMobile,
		&svc.IsActive,
		&svc.Rating,
		&svc.ReviewCount,
	)
	if err != nil {
		return domain.Service{}, fmt.Errorf("scan service: %w", err)
	}

	svc.OwnerID = domain.FlexID(ownerID)
	if price.Valid {
		svc.Price = domain.Float(price.Float64)
	}

	return svc, nil
}
