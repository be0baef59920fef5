package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"sellerhub/internal/domain"
	"sellerhub/internal/repos"
)

type CatalogService struct {
	DB    *sqlx.DB
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(db *sqlx.DB, cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{DB: db, Cats: cats, Prods: prods}
}

// ---------- Categories ----------

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	return s.Cats.Get(ctx, id)
}

type foundCategory struct {
	cat     domain.Category
	created bool
}

// FindOrCreateCategory returns the category with exactly this name and
// description, creating it when absent. When a concurrent request inserts the
// same pair first, the unique index rejects our insert and the winner's row is
// returned with created=false.
func (s *CatalogService) FindOrCreateCategory(ctx context.Context, name, description string) (domain.Category, bool, error) {
	res, err := repos.Atomic(ctx, s.DB, func(tx *sqlx.Tx) (foundCategory, error) {
		cats := s.Cats.WithTx(tx)
		c, err := cats.FindByPair(ctx, name, description)
		if err == nil {
			return foundCategory{cat: c}, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return foundCategory{}, err
		}
		c = domain.Category{Name: name, Description: description}
		if err := cats.Insert(ctx, &c); err != nil {
			return foundCategory{}, err
		}
		return foundCategory{cat: c, created: true}, nil
	})
	if errors.Is(err, domain.ErrConflict) {
		c, err := s.Cats.FindByPair(ctx, name, description)
		if err != nil {
			return domain.Category{}, false, fmt.Errorf("re-read category after insert race: %w", err)
		}
		return c, false, nil
	}
	if err != nil {
		return domain.Category{}, false, err
	}
	return res.cat, res.created, nil
}

// UpdateCategory renames a category. Colliding with another category's
// (name, description) pair is a conflict.
func (s *CatalogService) UpdateCategory(ctx context.Context, id, name, description string) (domain.Category, error) {
	if err := s.Cats.Update(ctx, id, name, description); err != nil {
		return domain.Category{}, err
	}
	return s.Cats.Get(ctx, id)
}

// DeleteCategory hard-deletes a category that no product references. The
// foreign key (ON DELETE RESTRICT) backs the check up against a product being
// attached concurrently.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.Cats.Get(ctx, id); err != nil {
		return err
	}
	n, err := s.Cats.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: category %s is used by %d product(s)", domain.ErrConflict, id, n)
	}
	return s.Cats.Delete(ctx, id)
}

// ---------- Products ----------

type NewProduct struct {
	CategoryID  *string
	Name        string
	Price       decimal.Decimal
	Quantity    int
	Unit        string
	Description string
	Status      string // draft (default) or pending
}

// ProductPatch carries the fields to change; nil leaves a field as is. A
// CategoryID pointing at "" detaches the product from its category.
type ProductPatch struct {
	CategoryID  *string
	Name        *string
	Price       *decimal.Decimal
	Quantity    *int
	Unit        *string
	Description *string
}

type ImageMode int

const (
	KeepImages ImageMode = iota
	ReplaceImages
)

// ImageChange says what an update does to the product's image set. Replace
// with no uploads clears the set.
type ImageChange struct {
	Mode    ImageMode
	Uploads []domain.ImageUpload
}

func KeepImageSet() ImageChange { return ImageChange{Mode: KeepImages} }

func ReplaceImageSet(uploads []domain.ImageUpload) ImageChange {
	return ImageChange{Mode: ReplaceImages, Uploads: uploads}
}

// CreateProduct stores the product and all of its images in one transaction.
func (s *CatalogService) CreateProduct(ctx context.Context, ownerID string, in NewProduct, uploads []domain.ImageUpload) (domain.Product, error) {
	status := in.Status
	if status == "" {
		status = domain.StatusDraft
	}
	if status != domain.StatusDraft && status != domain.StatusPending {
		return domain.Product{}, fmt.Errorf("%w: new products must be %s or %s", domain.ErrValidation, domain.StatusDraft, domain.StatusPending)
	}
	if in.Price.IsNegative() || in.Quantity < 0 {
		return domain.Product{}, fmt.Errorf("%w: price and quantity must not be negative", domain.ErrValidation)
	}

	p := domain.Product{
		CategoryID:   blankToNil(in.CategoryID),
		CreatorID:    ownerID,
		Name:         in.Name,
		Price:        in.Price,
		Quantity:     in.Quantity,
		Unit:         in.Unit,
		Description:  in.Description,
		Status:       status,
		PrimaryImage: primaryImage(uploads),
	}
	return repos.Atomic(ctx, s.DB, func(tx *sqlx.Tx) (domain.Product, error) {
		if err := s.checkCategory(ctx, tx, p.CategoryID); err != nil {
			return domain.Product{}, err
		}
		prods := s.Prods.WithTx(tx)
		if err := prods.Insert(ctx, &p); err != nil {
			return domain.Product{}, err
		}
		if err := prods.InsertImages(ctx, BuildImages(p.ID, ownerID, uploads)); err != nil {
			return domain.Product{}, err
		}
		return prods.Detail(ctx, p.ID)
	})
}

type updatedProduct struct {
	product domain.Product
	dropped []domain.ImageRef
}

// UpdateProduct applies patch and, for ReplaceImages, swaps the whole image
// set, all in one transaction. Only the creator may update a product. The
// second result holds the references the replace dropped; their blobs are
// the caller's to delete once this returns.
func (s *CatalogService) UpdateProduct(ctx context.Context, productID, requesterID string, patch ProductPatch, images ImageChange) (domain.Product, []domain.ImageRef, error) {
	res, err := repos.Atomic(ctx, s.DB, func(tx *sqlx.Tx) (updatedProduct, error) {
		prods := s.Prods.WithTx(tx)
		p, err := prods.Get(ctx, productID)
		if err != nil {
			return updatedProduct{}, err
		}
		if p.CreatorID != requesterID {
			return updatedProduct{}, fmt.Errorf("%w: product %s belongs to another seller", domain.ErrUnauthorized, productID)
		}
		if err := applyPatch(&p, patch); err != nil {
			return updatedProduct{}, err
		}
		if patch.CategoryID != nil {
			if err := s.checkCategory(ctx, tx, p.CategoryID); err != nil {
				return updatedProduct{}, err
			}
		}

		var dropped []domain.ImageRef
		if images.Mode == ReplaceImages {
			if dropped, err = prods.Images(ctx, productID); err != nil {
				return updatedProduct{}, err
			}
			if _, err := prods.DeleteImages(ctx, productID); err != nil {
				return updatedProduct{}, err
			}
			if err := prods.InsertImages(ctx, BuildImages(productID, requesterID, images.Uploads)); err != nil {
				return updatedProduct{}, err
			}
			p.PrimaryImage = primaryImage(images.Uploads)
		}
		if err := prods.Update(ctx, &p); err != nil {
			return updatedProduct{}, err
		}
		out, err := prods.Detail(ctx, productID)
		return updatedProduct{product: out, dropped: dropped}, err
	})
	if err != nil {
		return domain.Product{}, nil, err
	}
	return res.product, res.dropped, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, ownerID, status string) ([]domain.Product, error) {
	if status != "" && !domain.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	return s.Prods.ListByCreator(ctx, ownerID, status)
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.Prods.Detail(ctx, id)
}

// DeleteProduct removes an unlisted product and its images and returns the
// image references that went with it. Listed products (approved or shown in
// the shop) are a conflict; other sellers' products are unauthorized. Neither
// case writes anything.
func (s *CatalogService) DeleteProduct(ctx context.Context, productID, requesterID string) ([]domain.ImageRef, error) {
	return repos.Atomic(ctx, s.DB, func(tx *sqlx.Tx) ([]domain.ImageRef, error) {
		prods := s.Prods.WithTx(tx)
		p, err := prods.Get(ctx, productID)
		if err != nil {
			return nil, err
		}
		if p.CreatorID != requesterID {
			return nil, fmt.Errorf("%w: product %s belongs to another seller", domain.ErrUnauthorized, productID)
		}
		if p.Locked() {
			return nil, fmt.Errorf("%w: product in store can't be deleted", domain.ErrConflict)
		}
		dropped, err := prods.Images(ctx, productID)
		if err != nil {
			return nil, err
		}
		if _, err := prods.DeleteImages(ctx, productID); err != nil {
			return nil, err
		}
		n, err := prods.DeleteUnlisted(ctx, productID)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: product %s was listed while deleting", domain.ErrConflict, productID)
		}
		return dropped, nil
	})
}

// SetProductStatus moves a product along draft -> pending -> approved and
// toggles its shop visibility.
func (s *CatalogService) SetProductStatus(ctx context.Context, productID, status string, showInShop bool) (domain.Product, error) {
	return repos.Atomic(ctx, s.DB, func(tx *sqlx.Tx) (domain.Product, error) {
		prods := s.Prods.WithTx(tx)
		p, err := prods.Get(ctx, productID)
		if err != nil {
			return domain.Product{}, err
		}
		if err := domain.CheckTransition(p.Status, status, showInShop); err != nil {
			return domain.Product{}, err
		}
		if err := prods.SetStatus(ctx, productID, status, showInShop); err != nil {
			return domain.Product{}, err
		}
		return prods.Detail(ctx, productID)
	})
}

func (s *CatalogService) checkCategory(ctx context.Context, tx *sqlx.Tx, id *string) error {
	if id == nil {
		return nil
	}
	if _, err := s.Cats.WithTx(tx).Get(ctx, *id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: unknown category %s", domain.ErrValidation, *id)
		}
		return err
	}
	return nil
}

func applyPatch(p *domain.Product, patch ProductPatch) error {
	if patch.CategoryID != nil {
		p.CategoryID = blankToNil(patch.CategoryID)
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		if patch.Price.IsNegative() {
			return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
		}
		p.Price = *patch.Price
	}
	if patch.Quantity != nil {
		if *patch.Quantity < 0 {
			return fmt.Errorf("%w: quantity must not be negative", domain.ErrValidation)
		}
		p.Quantity = *patch.Quantity
	}
	if patch.Unit != nil {
		p.Unit = *patch.Unit
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	return nil
}

func blankToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
