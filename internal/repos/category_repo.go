package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"sellerhub/internal/domain"
)

type CategoryRepo struct{ q sqlx.ExtContext }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{q: db} }

// WithTx returns a repo whose statements run inside tx.
func (r *CategoryRepo) WithTx(tx *sqlx.Tx) *CategoryRepo { return &CategoryRepo{q: tx} }

const categoryCols = `id, name, description, created_at, updated_at`

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := sqlx.SelectContext(ctx, r.q, &out, `SELECT `+categoryCols+` FROM categories ORDER BY name, description`)
	return out, classify(err)
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (domain.Category, error) {
	var c domain.Category
	err := sqlx.GetContext(ctx, r.q, &c, r.q.Rebind(`SELECT `+categoryCols+` FROM categories WHERE id = ?`), id)
	if err != nil {
		return domain.Category{}, fmt.Errorf("category %s: %w", id, classify(err))
	}
	return c, nil
}

// FindByPair looks a category up by its exact (name, description) pair.
func (r *CategoryRepo) FindByPair(ctx context.Context, name, description string) (domain.Category, error) {
	var c domain.Category
	err := sqlx.GetContext(ctx, r.q, &c, r.q.Rebind(`
		SELECT `+categoryCols+` FROM categories
		WHERE name = ? AND description = ?
	`), name, description)
	if err != nil {
		return domain.Category{}, classify(err)
	}
	return c, nil
}

// Insert assigns id and timestamps to c and stores it.
func (r *CategoryRepo) Insert(ctx context.Context, c *domain.Category) error {
	now := time.Now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO categories(id, name, description, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?)
	`), c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert category: %w", classify(err))
	}
	return nil
}

func (r *CategoryRepo) Update(ctx context.Context, id, name, description string) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE categories SET name = ?, description = ?, updated_at = ?
		WHERE id = ?
	`), name, description, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update category %s: %w", id, classify(err))
	}
	return mustAffect(res, "category", id)
}

func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM categories WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, classify(err))
	}
	return mustAffect(res, "category", id)
}

// CountProducts returns how many products reference the category.
func (r *CategoryRepo) CountProducts(ctx context.Context, id string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n, r.q.Rebind(`SELECT COUNT(*) FROM products WHERE category_id = ?`), id)
	return n, classify(err)
}
