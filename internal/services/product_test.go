package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"sellerhub/internal/domain"
	"sellerhub/internal/services"
)

func tomatoes(categoryID *string) services.NewProduct {
	return services.NewProduct{
		CategoryID: categoryID,
		Name:       "Tomatoes",
		Price:      decimal.NewFromInt(5),
		Quantity:   10,
		Unit:       "kg",
	}
}

func uploads(n int) []domain.ImageUpload {
	out := make([]domain.ImageUpload, n)
	for i := range out {
		out[i] = domain.ImageUpload{
			OriginalName: fmt.Sprintf("img-%d.jpg", i),
			StoragePath:  fmt.Sprintf("/up/img-%d.jpg", i),
		}
	}
	return out
}

func imageRows(t *testing.T, db *sqlx.DB, productID string) []string {
	t.Helper()
	var ids []string
	if err := db.Select(&ids, `SELECT id FROM product_images WHERE product_id = ? ORDER BY position`, productID); err != nil {
		t.Fatal(err)
	}
	return ids
}

func TestCreateProductScenario(t *testing.T) {
	db := memdb(t)
	svc := catalog(db)

	p, err := svc.CreateProduct(context.Background(), "u-alice", tomatoes(nil),
		[]domain.ImageUpload{{OriginalName: "a.jpg", StoragePath: "/up/a.jpg"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Images) != 1 || p.Images[0].Name != "a.jpg" || p.Images[0].BlobReference != "/up/a.jpg" {
		t.Fatalf("unexpected images %+v", p.Images)
	}
	if p.PrimaryImage == nil || *p.PrimaryImage != "/up/a.jpg" {
		t.Fatalf("primary image not set: %v", p.PrimaryImage)
	}
	if !p.Price.Equal(decimal.NewFromInt(5)) || p.Quantity != 10 {
		t.Fatalf("fields not stored: %+v", p)
	}
	if p.Status != domain.StatusDraft || p.ShowInShop || p.CreatorID != "u-alice" {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}

func TestCreateProductImageCounts(t *testing.T) {
	db := memdb(t)
	svc := catalog(db)

	for _, n := range []int{0, 1, 4} {
		p, err := svc.CreateProduct(context.Background(), "u-alice", tomatoes(nil), uploads(n))
		if err != nil {
			t.Fatal(err)
		}
		if got := imageCount(t, db, p.ID); got != n {
			t.Fatalf("n=%d: want %d image rows, got %d", n, n, got)
		}
		if n == 0 && p.PrimaryImage != nil {
			t.Fatalf("n=0: primary image should be unset, got %q", *p.PrimaryImage)
		}
		if n > 0 && (p.PrimaryImage == nil || *p.PrimaryImage != "/up/img-0.jpg") {
			t.Fatalf("n=%d: primary image should be the first upload, got %v", n, p.PrimaryImage)
		}
		for i, im := range p.Images {
			if im.BlobReference != fmt.Sprintf("/up/img-%d.jpg", i) {
				t.Fatalf("n=%d: image order lost: %+v", n, p.Images)
			}
		}
	}
}

func TestCreateProductRejectsBadInput(t *testing.T) {
	db := memdb(t)
	svc := catalog(db)
	ctx := context.Background()

	missing := "no-such-category"
	if _, err := svc.CreateProduct(ctx, "u-alice", tomatoes(&missing), uploads(1)); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("unknown category: want ErrValidation, got %v", err)
	}
	in := tomatoes(nil)
	in.Status = domain.StatusApproved
	if _, err := svc.CreateProduct(ctx, "u-alice", in, nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("approved on create: want ErrValidation, got %v", err)
	}
	in = tomatoes(nil)
	in.Price = decimal.NewFromInt(-1)
	if _, err := svc.CreateProduct(ctx, "u-alice", in, nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("negative price: want ErrValidation, got %v", err)
	}
	if n := count(t, db, `SELECT COUNT(*) FROM products`); n != 0 {
		t.Fatalf("rejected creates left %d products", n)
	}
}

// An image insert failing must take the product insert down with it.
func TestCreateProductIsAtomic(t *testing.T) {
	db := memdb(t)
	svc := catalog(db)
	db.MustExec(`CREATE TRIGGER reject_images BEFORE INSERT ON product_images
		BEGIN SELECT RAISE(ABORT, 'image store offline'); END`)

	if _, err := svc.CreateProduct(context.Background(), "u-alice", tomatoes(nil), uploads(2)); err == nil {
		t.Fatal("want error from image insert")
	}
	if n := count(t, db, `SELECT COUNT(*) FROM products`); n != 0 {
		t.Fatalf("product committed without its images: %d rows", n)
	}
}

func TestUpdateProductReplacesImages(t *testing.T) {
	db := memdb(t)
	svc := catalog(db)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, "u-alice", tomatoes(nil), uploads(3))
	if err != nil {
		t.Fatal(err)
	}
	old := imageRows(t, db, p.ID)

	fresh := []domain.ImageUpload{
		{OriginalName: "b.jpg", StoragePath: "/up/b.jpg"},
		{OriginalName: "c.jpg", StoragePath: "/up/c.jpg"},
	}
	name := "Cherry tomatoes"
	got, dropped, err := svc.UpdateProduct(ctx, p.ID, "u-alice", services.ProductPatch{Name: &name}, services.ReplaceImageSet(fresh))
	if err != nil {
		t.Fatal(err)
	}
	if len(dropped) != len(old) {
		t.Fatalf("want %d dropped refs, got %+v", len(old), dropped)
	}
	for i, ref := range dropped {
		if ref.ID != old[i] || ref.BlobReference != fmt.Sprintf("/up/img-%d.jpg", i) {
			t.Fatalf("dropped ref %d does not match the replaced image: %+v", i, ref)
		}
	}
	now := imageRows(t, db, p.ID)
	if len(now) != 2 {
		t.Fatalf("want 2 image rows, got %d", len(now))
	}
	for _, o := range old {
		for _, n := range now {
			if o == n {
				t.Fatalf("old image %s survived the replace", o)
			}
		}
	}
	if got.PrimaryImage == nil || *got.PrimaryImage != "/up/b.jpg" {
		t.Fatalf("primary image should follow the new set, got %v", got.PrimaryImage)
	}
	if got.Name != name || got.Quantity != 10 {
		t.Fatalf("patch misapplied: %+v", got)
	}

	// keep: images untouched
	qty := 3
	got, dropped, err = svc.UpdateProduct(ctx, p.ID, "u-alice", services.ProductPatch{Quantity: &qty}, services.KeepImageSet())
	if err != nil {
		t.Fatal(err)
	}
	if len(dropped) != 0 {
		t.Fatalf("keep mode dropped %+v", dropped)
	}
	if len(got.Images) != 2 || got.Quantity != 3 {
		t.Fatalf("keep mode changed images or lost patch: %+v", got)
	}

	// replace with nothing clears the set
	got, dropped, err = svc.UpdateProduct(ctx, p.ID, "u-alice", services.ProductPatch{}, services.ReplaceImageSet(nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(dropped) != 2 || dropped[0].BlobReference != "/up/b.jpg" || dropped[1].BlobReference != "/up/c.jpg" {
		t.Fatalf("clear should drop the current set, got %+v", dropped)
	}
	if len(got.Images) != 0 || got.PrimaryImage != nil {
		t.Fatalf("empty replace should clear images: %+v", got)
	}
}

func TestUpdateProductRollsBackImageReplace(t *testing.T) {
	db := memdb(t)
	svc := catalog(db)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, "u-alice", tomatoes(nil), uploads(2))
	if err != nil {
		t.Fatal(err)
	}
	before := imageRows(t, db, p.ID)
	db.MustExec(`CREATE TRIGGER reject_images BEFORE INSERT ON product_images
		BEGIN SELECT RAISE(ABORT, 'image store offline'); END`)

	if _, _, err := svc.UpdateProduct(ctx, p.ID, "u-alice", services.ProductPatch{}, services.ReplaceImageSet(uploads(1))); err == nil {
		t.Fatal("want error from image insert")
	}
	after := imageRows(t, db, p.ID)
	if len(after) != len(before) || after[0] != before[0] {
		t.Fatalf("old images lost on failed replace: before=%v after=%v", before, after)
	}
}

func TestUpdateProductErrors(t *testing.T) {
	db := memdb(t)
	svc := catalog(db)
	ctx := context.Background()

	if _, _, err := svc.UpdateProduct(ctx, "missing", "u-alice", services.ProductPatch{}, services.KeepImageSet()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	p, err := svc.CreateProduct(ctx, "u-alice", tomatoes(nil), nil)
	if err != nil {
		t.Fatal(err)
	}
	name := "stolen"
	if _, _, err := svc.UpdateProduct(ctx, p.ID, "u-bob", services.ProductPatch{Name: &name}, services.KeepImageSet()); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
	got, _ := svc.GetProduct(ctx, p.ID)
	if got.Name != "Tomatoes" {
		t.Fatalf("unauthorized update mutated product: %+v", got)
	}
}

func TestDeleteProductRules(t *testing.T) {
	db := memdb(t)
	svc := catalog(db)
	ctx := context.Background()

	shown, _ := svc.CreateProduct(ctx, "u-alice", tomatoes(nil), uploads(2))
	db.MustExec(`UPDATE products SET show_in_shop = 1 WHERE id = ?`, shown.ID)
	if _, err := svc.DeleteProduct(ctx, shown.ID, "u-alice"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("shown product: want ErrConflict, got %v", err)
	}
	if n := imageCount(t, db, shown.ID); n != 2 {
		t.Fatalf("rejected delete touched images: %d left", n)
	}

	approved, _ := svc.CreateProduct(ctx, "u-alice", tomatoes(nil), nil)
	db.MustExec(`UPDATE products SET status = 'approved' WHERE id = ?`, approved.ID)
	if _, err := svc.DeleteProduct(ctx, approved.ID, "u-alice"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("approved product: want ErrConflict, got %v", err)
	}

	mine, _ := svc.CreateProduct(ctx, "u-alice", tomatoes(nil), uploads(1))
	if _, err := svc.DeleteProduct(ctx, mine.ID, "u-bob"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("foreign product: want ErrUnauthorized, got %v", err)
	}
	if _, err := svc.GetProduct(ctx, mine.ID); err != nil {
		t.Fatalf("unauthorized delete removed product: %v", err)
	}

	dropped, err := svc.DeleteProduct(ctx, mine.ID, "u-alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(dropped) != 1 || dropped[0].BlobReference != "/up/img-0.jpg" {
		t.Fatalf("delete should hand back the product's image refs, got %+v", dropped)
	}
	if _, err := svc.GetProduct(ctx, mine.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("deleted product still readable: %v", err)
	}
	if n := imageCount(t, db, mine.ID); n != 0 {
		t.Fatalf("images outlived their product: %d", n)
	}
	if _, err := svc.DeleteProduct(ctx, mine.ID, "u-alice"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}

func TestListProducts(t *testing.T) {
	db := memdb(t)
	svc := catalog(db)
	ctx := context.Background()

	cat, _, _ := svc.FindOrCreateCategory(ctx, "Produce", "Fresh")
	first, _ := svc.CreateProduct(ctx, "u-alice", tomatoes(&cat.ID), uploads(1))
	time.Sleep(2 * time.Millisecond)
	pending := tomatoes(nil)
	pending.Name = "Peppers"
	pending.Status = domain.StatusPending
	second, _ := svc.CreateProduct(ctx, "u-alice", pending, nil)
	if _, err := svc.CreateProduct(ctx, "u-bob", tomatoes(nil), nil); err != nil {
		t.Fatal(err)
	}

	all, err := svc.ListProducts(ctx, "u-alice", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].ID != second.ID || all[1].ID != first.ID {
		t.Fatalf("want alice's products newest first, got %+v", all)
	}
	if all[1].Category == nil || all[1].Category.Name != "Produce" || all[1].Category.Description != "Fresh" {
		t.Fatalf("category not joined: %+v", all[1].Category)
	}
	if len(all[1].Images) != 1 || all[0].Images == nil {
		t.Fatalf("images not joined: %+v / %+v", all[1].Images, all[0].Images)
	}

	only, err := svc.ListProducts(ctx, "u-alice", domain.StatusPending)
	if err != nil {
		t.Fatal(err)
	}
	if len(only) != 1 || only[0].ID != second.ID {
		t.Fatalf("status filter failed: %+v", only)
	}
	if _, err := svc.ListProducts(ctx, "u-alice", "sold"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("unknown status filter: want ErrValidation, got %v", err)
	}
}

func TestSetProductStatus(t *testing.T) {
	db := memdb(t)
	svc := catalog(db)
	ctx := context.Background()

	p, _ := svc.CreateProduct(ctx, "u-alice", tomatoes(nil), nil)
	if _, err := svc.SetProductStatus(ctx, p.ID, domain.StatusApproved, true); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("skipping pending: want ErrConflict, got %v", err)
	}
	if _, err := svc.SetProductStatus(ctx, p.ID, domain.StatusPending, false); err != nil {
		t.Fatal(err)
	}
	got, err := svc.SetProductStatus(ctx, p.ID, domain.StatusApproved, true)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusApproved || !got.ShowInShop {
		t.Fatalf("status not applied: %+v", got)
	}
	if _, err := svc.DeleteProduct(ctx, p.ID, "u-alice"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("listed product: want ErrConflict, got %v", err)
	}
}

func TestProductTimeout(t *testing.T) {
	db := memdb(t)
	svc := catalog(db)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	if _, err := svc.CreateProduct(ctx, "u-alice", tomatoes(nil), uploads(1)); !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("want ErrTimeout, got %v", err)
	}
	if n := count(t, db, `SELECT COUNT(*) FROM products`); n != 0 {
		t.Fatalf("timed out create left %d products", n)
	}
}
