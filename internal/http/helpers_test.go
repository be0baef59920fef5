package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"sellerhub/internal/config"
	"sellerhub/internal/http/handlers"
	"sellerhub/internal/media"
	"sellerhub/internal/notify"
	"sellerhub/internal/paystack"
	"sellerhub/internal/repos"
)

type testEnv struct {
	app   *fiber.App
	db    *sqlx.DB
	users *repos.UserRepo
	mail  *recordingMailer
	note  *notify.Notifier
	media *media.Store
}

type recordingMailer struct {
	mu  sync.Mutex
	to  []string
	sub []string
}

func (m *recordingMailer) Send(to, subject, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = append(m.to, to)
	m.sub = append(m.sub, subject)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.to)
}

// provider answers for the payment provider; nil gets a provider that
// resolves every account.
func newEnv(t *testing.T, provider http.HandlerFunc) *testEnv {
	t.Helper()
	return newEnvWithTimeout(t, provider, 5*time.Second)
}

func newEnvWithTimeout(t *testing.T, provider http.HandlerFunc, requestTimeout time.Duration) *testEnv {
	t.Helper()
	if provider == nil {
		provider = func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/bank" {
				fmt.Fprint(w, `{"status":true,"message":"Banks retrieved","data":[{"name":"GTBank","code":"058"}]}`)
				return
			}
			fmt.Fprintf(w, `{"status":true,"data":{"account_number":%q,"account_name":"ALICE SELLER"}}`, r.URL.Query().Get("account_number"))
		}
	}
	srv := httptest.NewServer(provider)
	t.Cleanup(srv.Close)

	db, err := repos.OpenDB(repos.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store, err := media.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mail := &recordingMailer{}
	note, err := notify.New(mail)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Config{RequestTimeout: requestTimeout}
	client := paystack.New(srv.URL, "sk_test", 2*time.Second)
	deps := handlers.NewDeps(db, cfg, client, client, store, note)

	return &testEnv{
		app:   handlers.NewApp(deps),
		db:    db,
		users: repos.NewUserRepo(db),
		mail:  mail,
		note:  note,
		media: store,
	}
}

// session binds a fresh sid to userID and returns it.
func (e *testEnv) session(t *testing.T, userID string) string {
	t.Helper()
	sid := "sid-" + userID
	if err := e.users.BindSession(context.Background(), sid, userID); err != nil {
		t.Fatal(err)
	}
	return sid
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field string `json:"field"`
		Type  string `json:"type"`
	} `json:"errors"`
}

func (e *testEnv) do(t *testing.T, req *http.Request, sid string) (int, apiResponse) {
	t.Helper()
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := e.app.Test(req, 10000)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	var out apiResponse
	if len(body) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(body, &out); err != nil {
			t.Fatalf("decode %s: %v", body, err)
		}
	}
	return resp.StatusCode, out
}

func jsonReq(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

type upload struct {
	name, contentType string
}

func multipartReq(t *testing.T, method, path string, fields map[string]string, files []upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="images"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = io.WriteString(part, "bytes of "+f.name)
	}
	_ = w.Close()
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode data %s: %v", raw, err)
	}
	return v
}

func rows(t *testing.T, db *sqlx.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.Get(&n, query, args...); err != nil {
		t.Fatal(err)
	}
	return n
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID string         `json:"user_id"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

// capture logs by temporarily replacing the standard logger output
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedWriter{w: &buf, mu: &mu})
	log.SetFlags(0) // remove timestamps to make JSON parseable
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
