package validate

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Login struct {
	Email    string `json:"email" validate:"required,email,max=50"`
	Password string `json:"password" validate:"required,min=8,max=20"`
}

type Category struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

func (r *Category) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
}

// Product is the multipart form behind product create. Price arrives as text
// so that it keeps its exact decimal value.
type Product struct {
	CategoryID  string `form:"category_id" validate:"omitempty,rid"`
	Name        string `form:"name" validate:"required,max=120"`
	Price       string `form:"price" validate:"required,money"`
	Quantity    int    `form:"quantity" validate:"gte=0"`
	Unit        string `form:"unit" validate:"max=30"`
	Description string `form:"description" validate:"max=2000"`
	Status      string `form:"status" validate:"omitempty,oneof=draft pending"`
}

func (r *Product) Normalize() {
	r.CategoryID = strings.TrimSpace(r.CategoryID)
	r.Name = strings.TrimSpace(r.Name)
	r.Price = strings.TrimSpace(r.Price)
	r.Unit = strings.TrimSpace(r.Unit)
	r.Description = strings.TrimSpace(r.Description)
	r.Status = strings.TrimSpace(r.Status)
}

// PriceValue is only meaningful after Struct accepted r.
func (r Product) PriceValue() decimal.Decimal {
	d, _ := decimal.NewFromString(r.Price)
	return d
}

// ProductPatch is the multipart form behind product update. Absent fields
// stay nil and leave the stored value untouched.
type ProductPatch struct {
	CategoryID  *string `validate:"omitempty"`
	Name        *string `validate:"omitempty,min=1,max=120"`
	Price       *string `validate:"omitempty,money"`
	Quantity    *int    `validate:"omitempty,gte=0"`
	Unit        *string `validate:"omitempty,max=30"`
	Description *string `validate:"omitempty,max=2000"`
	ClearImages bool
}

type ProductStatus struct {
	Status     string `json:"status" validate:"required,oneof=draft pending approved"`
	ShowInShop bool   `json:"show_in_shop"`
}

type BankDetail struct {
	BankCode      string `json:"bank_code" validate:"required,numeric,max=10"`
	BankName      string `json:"bank_name" validate:"required,max=100"`
	AccountName   string `json:"account_name" validate:"max=100"`
	AccountNumber string `json:"account_number" validate:"required,numeric,len=10"`
}

func (r *BankDetail) Normalize() {
	r.BankCode = strings.TrimSpace(r.BankCode)
	r.BankName = strings.TrimSpace(r.BankName)
	r.AccountName = strings.TrimSpace(r.AccountName)
	r.AccountNumber = strings.TrimSpace(r.AccountNumber)
}
