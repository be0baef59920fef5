package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"sellerhub/internal/domain"
)

type BankRepo struct{ q sqlx.ExtContext }

func NewBankRepo(db *sqlx.DB) *BankRepo { return &BankRepo{q: db} }

// WithTx returns a repo whose statements run inside tx.
func (r *BankRepo) WithTx(tx *sqlx.Tx) *BankRepo { return &BankRepo{q: tx} }

func (r *BankRepo) ByUser(ctx context.Context, userID string) (domain.BankDetail, error) {
	var b domain.BankDetail
	err := sqlx.GetContext(ctx, r.q, &b, r.q.Rebind(`
		SELECT user_id, bank_code, bank_name, account_name, account_number, created_at, updated_at
		FROM bank_details WHERE user_id = ?
	`), userID)
	if err != nil {
		return domain.BankDetail{}, fmt.Errorf("bank detail for %s: %w", userID, classify(err))
	}
	return b, nil
}

func (r *BankRepo) Insert(ctx context.Context, b *domain.BankDetail) error {
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO bank_details(user_id, bank_code, bank_name, account_name, account_number, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)
	`), b.UserID, b.BankCode, b.BankName, b.AccountName, b.AccountNumber, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert bank detail: %w", classify(err))
	}
	return nil
}

// Update replaces every field of the user's record.
func (r *BankRepo) Update(ctx context.Context, b *domain.BankDetail) error {
	b.UpdatedAt = time.Now().UTC()
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE bank_details
		SET bank_code = ?, bank_name = ?, account_name = ?, account_number = ?, updated_at = ?
		WHERE user_id = ?
	`), b.BankCode, b.BankName, b.AccountName, b.AccountNumber, b.UpdatedAt, b.UserID)
	if err != nil {
		return fmt.Errorf("update bank detail: %w", classify(err))
	}
	return mustAffect(res, "bank detail", b.UserID)
}

func (r *BankRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n, r.q.Rebind(`SELECT COUNT(*) FROM bank_details WHERE user_id = ?`), userID)
	return n, classify(err)
}
