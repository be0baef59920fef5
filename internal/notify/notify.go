package notify

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"sync"

	"github.com/gofiber/template/html/v2"

	"sellerhub/internal/domain"
	applog "sellerhub/internal/log"
)

//go:embed templates/*.html
var templateFS embed.FS

// Notifier sends account emails in the background. Delivery failures are
// logged and never reach the request that triggered them.
type Notifier struct {
	mailer Mailer
	views  *html.Engine
	wg     sync.WaitGroup
}

func New(m Mailer) (*Notifier, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	views := html.NewFileSystem(http.FS(sub), ".html")
	if err := views.Load(); err != nil {
		return nil, fmt.Errorf("load mail templates: %w", err)
	}
	return &Notifier{mailer: m, views: views}, nil
}

func (n *Notifier) BankDetailSaved(u *domain.User, d domain.BankDetail, created bool) {
	last4 := d.AccountNumber
	if len(last4) > 4 {
		last4 = last4[len(last4)-4:]
	}
	n.Notify(u, "Your payout account was saved", "bank_saved", map[string]any{
		"Name": u.Name, "Detail": d, "Created": created, "Last4": last4,
	})
}

func (n *Notifier) ProductCreated(u *domain.User, p domain.Product) {
	n.Notify(u, "Product saved: "+p.Name, "product_created", map[string]any{
		"Name": u.Name, "Product": p,
	})
}

// Wait blocks until every queued email has been handled.
func (n *Notifier) Wait() { n.wg.Wait() }

// Notify renders view with data and mails it to u in the background.
func (n *Notifier) Notify(u *domain.User, subject, view string, data map[string]any) {
	if u == nil || u.Email == "" {
		return
	}
	var body bytes.Buffer
	if err := n.views.Render(&body, view, data); err != nil {
		applog.Error(nil, "mail.render.fail", err, map[string]any{"view": view})
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.mailer.Send(u.Email, subject, body.String()); err != nil {
			applog.Error(nil, "mail.send.fail", err, map[string]any{"view": view, "user_id": u.ID})
			return
		}
		applog.Info(nil, "mail.sent", map[string]any{"view": view, "user_id": u.ID})
	}()
}
