package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"sellerhub/internal/domain"
	"sellerhub/internal/repos"
)

// Verifier confirms that an account number belongs to a holder at a bank.
type Verifier interface {
	VerifyAccount(ctx context.Context, accountNumber, bankCode string) (domain.AccountVerification, error)
}

type BankLister interface {
	ListBanks(ctx context.Context) ([]domain.Bank, error)
}

type PayoutService struct {
	DB       *sqlx.DB
	Details  *repos.BankRepo
	Verifier Verifier
	Banks    BankLister
}

func NewPayoutService(db *sqlx.DB, details *repos.BankRepo, v Verifier, banks BankLister) *PayoutService {
	return &PayoutService{DB: db, Details: details, Verifier: v, Banks: banks}
}

type SaveBankDetail struct {
	BankCode      string
	BankName      string
	AccountName   string
	AccountNumber string
}

type savedDetail struct {
	detail  domain.BankDetail
	created bool
}

// SaveBankDetail verifies the account with the provider and only then
// upserts the user's single payout record. A rejected or unverifiable
// account never touches the store.
func (s *PayoutService) SaveBankDetail(ctx context.Context, userID string, in SaveBankDetail) (domain.BankDetail, bool, error) {
	v, err := s.Verifier.VerifyAccount(ctx, in.AccountNumber, in.BankCode)
	if err != nil {
		if !errors.Is(err, domain.ErrUpstream) && !errors.Is(err, domain.ErrTimeout) {
			err = fmt.Errorf("%w: %w", domain.ErrUpstream, err)
		}
		return domain.BankDetail{}, false, err
	}
	if !v.Valid {
		return domain.BankDetail{}, false, fmt.Errorf("%w: account not valid", domain.ErrValidation)
	}

	d := domain.BankDetail{
		UserID:        userID,
		BankCode:      in.BankCode,
		BankName:      in.BankName,
		AccountName:   in.AccountName,
		AccountNumber: in.AccountNumber,
	}
	if d.AccountName == "" {
		d.AccountName = v.AccountName
	}

	res, err := s.upsert(ctx, d)
	if errors.Is(err, domain.ErrConflict) {
		// A concurrent first save inserted the row; this attempt now updates it.
		res, err = s.upsert(ctx, d)
	}
	if err != nil {
		return domain.BankDetail{}, false, err
	}
	return res.detail, res.created, nil
}

func (s *PayoutService) upsert(ctx context.Context, d domain.BankDetail) (savedDetail, error) {
	return repos.Atomic(ctx, s.DB, func(tx *sqlx.Tx) (savedDetail, error) {
		details := s.Details.WithTx(tx)
		existing, err := details.ByUser(ctx, d.UserID)
		switch {
		case err == nil:
			d.CreatedAt = existing.CreatedAt
			if err := details.Update(ctx, &d); err != nil {
				return savedDetail{}, err
			}
			return savedDetail{detail: d}, nil
		case errors.Is(err, domain.ErrNotFound):
			if err := details.Insert(ctx, &d); err != nil {
				return savedDetail{}, err
			}
			return savedDetail{detail: d, created: true}, nil
		default:
			return savedDetail{}, err
		}
	})
}

func (s *PayoutService) GetBankDetail(ctx context.Context, userID string) (domain.BankDetail, error) {
	return s.Details.ByUser(ctx, userID)
}

func (s *PayoutService) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	return s.Banks.ListBanks(ctx)
}
