package main

import (
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2/middleware/logger"

	"sellerhub/internal/cache"
	"sellerhub/internal/config"
	"sellerhub/internal/domain"
	"sellerhub/internal/http/handlers"
	"sellerhub/internal/media"
	"sellerhub/internal/notify"
	"sellerhub/internal/paystack"
	"sellerhub/internal/repos"
	"sellerhub/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Payment provider, with the bank list cached in Redis when configured
	provider := paystack.New(cfg.PaystackBaseURL, cfg.PaystackSecret, cfg.VerifyTimeout)
	if cfg.PaystackSecret == "" {
		log.Printf("[warn] PAYSTACK_SECRET_KEY is empty; account verification will fail")
	}
	var banks services.BankLister = provider
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Printf("[warn] redis disabled: %v", err)
		} else {
			defer rdb.Close()
			banks = cache.NewBanks(provider, cache.NewViewCache[[]domain.Bank](rdb, cfg.BankCacheTTL))
			log.Printf("[cache] bank list -> redis %s (ttl %s)", cfg.RedisAddr, cfg.BankCacheTTL)
		}
	}

	store, err := media.NewStore(cfg.MediaDir)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("[static] /media -> %s", store.Dir)

	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.SMTPHost != "" {
		mailer = notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	}
	notifier, err := notify.New(mailer)
	if err != nil {
		log.Fatal(err)
	}

	deps := handlers.NewDeps(db, cfg, provider, banks, store, notifier)
	app := handlers.NewApp(deps, logger.New())

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Printf("[shutdown] draining requests")
		if err := app.Shutdown(); err != nil {
			log.Printf("[shutdown] %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("[listen] %v", err)
	}
	notifier.Wait()
}
