package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"sellerhub/internal/domain"
)

type ProductRepo struct{ q sqlx.ExtContext }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{q: db} }

// WithTx returns a repo whose statements run inside tx.
func (r *ProductRepo) WithTx(tx *sqlx.Tx) *ProductRepo { return &ProductRepo{q: tx} }

const productCols = `
    p.id, p.category_id, p.creator_id, p.name, p.price, p.quantity, p.unit,
    p.description, p.status, p.show_in_shop, p.primary_image, p.created_at, p.updated_at`

// productRow carries the product plus its LEFT JOINed category columns.
type productRow struct {
	domain.Product
	CatID   *string `db:"cat_id"`
	CatName *string `db:"cat_name"`
	CatDesc *string `db:"cat_description"`
}

const productJoinSelect = `
  SELECT` + productCols + `,
    c.id AS cat_id, c.name AS cat_name, c.description AS cat_description
  FROM products p
  LEFT JOIN categories c ON c.id = p.category_id`

// Insert assigns id and timestamps to p and stores the product row only.
func (r *ProductRepo) Insert(ctx context.Context, p *domain.Product) error {
	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO products(id, category_id, creator_id, name, price, quantity, unit,
		                     description, status, show_in_shop, primary_image, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), p.ID, p.CategoryID, p.CreatorID, p.Name, p.Price, p.Quantity, p.Unit,
		p.Description, p.Status, p.ShowInShop, p.PrimaryImage, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", classify(err))
	}
	return nil
}

// Update writes the editable columns of p (everything except creator, status
// and visibility).
func (r *ProductRepo) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE products
		SET category_id = ?, name = ?, price = ?, quantity = ?, unit = ?,
		    description = ?, primary_image = ?, updated_at = ?
		WHERE id = ?
	`), p.CategoryID, p.Name, p.Price, p.Quantity, p.Unit,
		p.Description, p.PrimaryImage, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update product %s: %w", p.ID, classify(err))
	}
	return mustAffect(res, "product", p.ID)
}

func (r *ProductRepo) SetStatus(ctx context.Context, id, status string, showInShop bool) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE products SET status = ?, show_in_shop = ?, updated_at = ?
		WHERE id = ?
	`), status, showInShop, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set product %s status: %w", id, classify(err))
	}
	return mustAffect(res, "product", id)
}

// InsertImages bulk inserts imgs, assigning ids, positions and timestamps.
func (r *ProductRepo) InsertImages(ctx context.Context, imgs []domain.ProductImage) error {
	if len(imgs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range imgs {
		imgs[i].ID = uuid.NewString()
		imgs[i].Position = i
		imgs[i].CreatedAt = now
	}
	_, err := sqlx.NamedExecContext(ctx, r.q, `
		INSERT INTO product_images(id, product_id, name, blob_reference, creator_id, position, created_at)
		VALUES(:id, :product_id, :name, :blob_reference, :creator_id, :position, :created_at)`, imgs)
	if err != nil {
		return fmt.Errorf("insert product images: %w", classify(err))
	}
	return nil
}

// DeleteImages removes every image row of a product and reports how many went.
func (r *ProductRepo) DeleteImages(ctx context.Context, productID string) (int64, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM product_images WHERE product_id = ?`), productID)
	if err != nil {
		return 0, fmt.Errorf("delete images of %s: %w", productID, classify(err))
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Get returns the bare product row.
func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, r.q, &p, r.q.Rebind(`SELECT`+productCols+` FROM products p WHERE p.id = ?`), id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, classify(err))
	}
	return p, nil
}

// Detail returns the product with its category and images attached.
func (r *ProductRepo) Detail(ctx context.Context, id string) (domain.Product, error) {
	var row productRow
	if err := sqlx.GetContext(ctx, r.q, &row, r.q.Rebind(productJoinSelect+` WHERE p.id = ?`), id); err != nil {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, classify(err))
	}
	out, err := r.attach(ctx, []productRow{row})
	if err != nil {
		return domain.Product{}, err
	}
	return out[0], nil
}

// ListByCreator returns a seller's products, newest first, optionally
// restricted to one status.
func (r *ProductRepo) ListByCreator(ctx context.Context, creatorID, status string) ([]domain.Product, error) {
	where := ` WHERE p.creator_id = ?`
	args := []any{creatorID}
	if status != "" {
		where += ` AND p.status = ?`
		args = append(args, status)
	}
	var rows []productRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(productJoinSelect+where+`
	  ORDER BY p.created_at DESC, p.id`), args...); err != nil {
		return nil, classify(err)
	}
	return r.attach(ctx, rows)
}

// DeleteUnlisted deletes the product only while it is still unlisted. The
// guard lives in the WHERE clause so an approval that lands between the
// caller's check and this statement is not overridden.
func (r *ProductRepo) DeleteUnlisted(ctx context.Context, id string) (int64, error) {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		DELETE FROM products
		WHERE id = ? AND show_in_shop = ? AND status <> ?
	`), id, false, domain.StatusApproved)
	if err != nil {
		return 0, fmt.Errorf("delete product %s: %w", id, classify(err))
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Images lists a product's image references in display order.
func (r *ProductRepo) Images(ctx context.Context, productID string) ([]domain.ImageRef, error) {
	var out []domain.ImageRef
	err := sqlx.SelectContext(ctx, r.q, &out, r.q.Rebind(`
		SELECT id, name, blob_reference FROM product_images
		WHERE product_id = ? ORDER BY position`), productID)
	if err != nil {
		return nil, fmt.Errorf("images of %s: %w", productID, classify(err))
	}
	return out, nil
}

func (r *ProductRepo) CountImages(ctx context.Context, productID string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n, r.q.Rebind(`SELECT COUNT(*) FROM product_images WHERE product_id = ?`), productID)
	return n, classify(err)
}

type imageRow struct {
	ProductID string `db:"product_id"`
	domain.ImageRef
}

func (r *ProductRepo) attach(ctx context.Context, rows []productRow) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	query, args, err := sqlx.In(`
		SELECT product_id, id, name, blob_reference
		FROM product_images
		WHERE product_id IN (?)
		ORDER BY product_id, position`, ids)
	if err != nil {
		return nil, err
	}
	var imgs []imageRow
	if err := sqlx.SelectContext(ctx, r.q, &imgs, r.q.Rebind(query), args...); err != nil {
		return nil, classify(err)
	}
	byProduct := map[string][]domain.ImageRef{}
	for _, im := range imgs {
		byProduct[im.ProductID] = append(byProduct[im.ProductID], im.ImageRef)
	}

	for _, row := range rows {
		p := row.Product
		if row.CatID != nil {
			p.Category = &domain.CategoryRef{ID: *row.CatID, Name: deref(row.CatName), Description: deref(row.CatDesc)}
		}
		p.Images = byProduct[p.ID]
		if p.Images == nil {
			p.Images = []domain.ImageRef{}
		}
		out = append(out, p)
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
