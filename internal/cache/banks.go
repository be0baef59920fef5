package cache

import (
	"context"

	"sellerhub/internal/domain"
)

const banksKey = "sellerhub:banks"

type BankSource interface {
	ListBanks(ctx context.Context) ([]domain.Bank, error)
}

// Banks serves the provider's bank list from Redis when it can and falls back
// to the provider on a miss.
type Banks struct {
	src   BankSource
	cache *ViewCache[[]domain.Bank]
}

func NewBanks(src BankSource, cache *ViewCache[[]domain.Bank]) *Banks {
	return &Banks{src: src, cache: cache}
}

func (b *Banks) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	if v, ok := b.cache.Get(ctx, banksKey); ok && len(*v) > 0 {
		return *v, nil
	}
	banks, err := b.src.ListBanks(ctx)
	if err != nil {
		return nil, err
	}
	b.cache.Set(ctx, banksKey, &banks)
	return banks, nil
}
