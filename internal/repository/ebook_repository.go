package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/xyz-school/portal-api/internal/models"
)

const ebookColumns = "id, title, description, cover_image, created_at, updated_at"

// EbookRepository handles persistence for the e-book catalog.
type EbookRepository struct {
	db *sqlx.DB
}

// NewEbookRepository instantiates an ebook repository.
func NewEbookRepository(db *sqlx.DB) *EbookRepository {
	return &EbookRepository{db: db}
}

// List returns ebooks matching the provided filters.
func (r *EbookRepository) List(ctx context.Context, filter models.EbookFilter) ([]models.Ebook, int, error) {
	base := "FROM ebooks WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"title":      true,
		"created_at": true,
		"updated_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "title"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, id ASC LIMIT %d OFFSET %d", ebookColumns, base, sortBy, order, size, offset)

	var ebooks []models.Ebook
	if err := r.db.SelectContext(ctx, &ebooks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list ebooks: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count ebooks: %w", err)
	}

	return ebooks, total, nil
}

// FindByID loads an ebook by identifier.
func (r *EbookRepository) FindByID(ctx context.Context, id int64) (*models.Ebook, error) {
	query := fmt.Sprintf("SELECT %s FROM ebooks WHERE id = $1", ebookColumns)
	var ebook models.Ebook
	if err := r.db.GetContext(ctx, &ebook, query, id); err != nil {
		return nil, err
	}
	return &ebook, nil
}

// Create inserts a new ebook record.
func (r *EbookRepository) Create(ctx context.Context, ebook *models.Ebook) error {
	now := time.Now().UTC()
	ebook.CreatedAt = now
	ebook.UpdatedAt = now

	const query = `INSERT INTO ebooks (title, description, cover_image, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.GetContext(ctx, &ebook.ID, query, ebook.Title, ebook.Description, ebook.CoverImage, ebook.CreatedAt, ebook.UpdatedAt); err != nil {
		return fmt.Errorf("create ebook: %w", err)
	}
	return nil
}

// Update modifies an existing ebook.
func (r *EbookRepository) Update(ctx context.Context, ebook *models.Ebook) error {
	ebook.UpdatedAt = time.Now().UTC()
	const query = `UPDATE ebooks SET title = :title, description = :description, cover_image = :cover_image, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, ebook); err != nil {
		return fmt.Errorf("update ebook: %w", err)
	}
	return nil
}

// Delete removes an ebook permanently.
func (r *EbookRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM ebooks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete ebook: %w", err)
	}
	return nil
}
