package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Product lifecycle tags. Status is moved forward by an admin; sellers only
// ever create drafts or pending products.
const (
	StatusDraft    = "draft"
	StatusPending  = "pending"
	StatusApproved = "approved"
)

type Product struct {
	ID           string          `db:"id" json:"id"`
	CategoryID   *string         `db:"category_id" json:"categoryId"`
	CreatorID    string          `db:"creator_id" json:"creatorId"`
	Name         string          `db:"name" json:"name"`
	Price        decimal.Decimal `db:"price" json:"price"`
	Quantity     int             `db:"quantity" json:"quantity"`
	Unit         string          `db:"unit" json:"unit"`
	Description  string          `db:"description" json:"description"`
	Status       string          `db:"status" json:"status"`
	ShowInShop   bool            `db:"show_in_shop" json:"showInShop"`
	PrimaryImage *string         `db:"primary_image" json:"primaryImage"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`

	Category *CategoryRef `db:"-" json:"category,omitempty"`
	Images   []ImageRef   `db:"-" json:"images"`
}

// Locked reports whether the product is listed and therefore may not be deleted.
func (p Product) Locked() bool {
	return p.ShowInShop || p.Status == StatusApproved
}

// CategoryRef is the slice of a category embedded in product reads.
type CategoryRef struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
}

// ImageRef is the slice of an image embedded in product reads.
type ImageRef struct {
	ID            string `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	BlobReference string `db:"blob_reference" json:"blobReference"`
}

type ProductImage struct {
	ID            string    `db:"id" json:"id"`
	ProductID     string    `db:"product_id" json:"productId"`
	Name          string    `db:"name" json:"name"`
	BlobReference string    `db:"blob_reference" json:"blobReference"`
	CreatorID     string    `db:"creator_id" json:"creatorId"`
	Position      int       `db:"position" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

type BankDetail struct {
	UserID        string    `db:"user_id" json:"userId"`
	BankCode      string    `db:"bank_code" json:"bankCode"`
	BankName      string    `db:"bank_name" json:"bankName"`
	AccountName   string    `db:"account_name" json:"accountName"`
	AccountNumber string    `db:"account_number" json:"accountNumber"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

type Bank struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// AccountVerification is the payment provider's answer for an account lookup.
type AccountVerification struct {
	Valid         bool
	AccountName   string
	AccountNumber string
}

// ImageUpload describes one stored upload: the client's file name and the
// opaque reference the upload handler stored it under.
type ImageUpload struct {
	OriginalName string `json:"originalName"`
	StoragePath  string `json:"storagePath"`
}
