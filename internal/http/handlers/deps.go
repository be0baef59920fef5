package handlers

import (
	"time"

	"github.com/jmoiron/sqlx"

	"sellerhub/internal/config"
	"sellerhub/internal/media"
	"sellerhub/internal/notify"
	"sellerhub/internal/repos"
	"sellerhub/internal/services"
)

type Deps struct {
	Auth            *services.AuthService
	AuthHandler     *AuthHandler
	CategoryHandler *CategoryHandler
	ProductHandler  *ProductHandler
	AdminHandler    *AdminHandler
	PayoutHandler   *PayoutHandler

	MediaDir       string
	RequestTimeout time.Duration
}

// NewDeps wires repositories and services onto db. The provider client and
// bank lister are built by the caller so tests can substitute fakes.
func NewDeps(db *sqlx.DB, cfg config.Config, verifier services.Verifier, banks services.BankLister, store *media.Store, notifier *notify.Notifier) *Deps {
	userRepo := repos.NewUserRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	bankRepo := repos.NewBankRepo(db)

	authSvc := &services.AuthService{Users: userRepo}
	catalogSvc := services.NewCatalogService(db, catRepo, prodRepo)
	payoutSvc := services.NewPayoutService(db, bankRepo, verifier, banks)

	return &Deps{
		Auth:            authSvc,
		AuthHandler:     &AuthHandler{Auth: authSvc},
		CategoryHandler: &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc, Media: store, Notify: notifier},
		AdminHandler:    &AdminHandler{Catalog: catalogSvc},
		PayoutHandler:   &PayoutHandler{Payout: payoutSvc, Notify: notifier},
		MediaDir:        store.Dir,
		RequestTimeout:  cfg.RequestTimeout,
	}
}
