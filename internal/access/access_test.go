package access

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Yusuf-Babagana/smahi/internal/ledger"
	"github.com/Yusuf-Babagana/smahi/internal/models"
	"github.com/Yusuf-Babagana/smahi/internal/session"
)

func setupEngine(t *testing.T) *Engine {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.PaymentTransaction{}, &models.FormAccess{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewEngine(session.NewStore("test-secret"), ledger.New(db))
}

func requestWith(t *testing.T, e *Engine, p session.Payment) *http.Request {
	t.Helper()
	w := httptest.NewRecorder()
	e.Sessions.Set(w, p)
	req := httptest.NewRequest(http.MethodGet, "/apply", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestVerifiedSessionShortCircuits(t *testing.T) {
	e := setupEngine(t)
	// No grant in the ledger at all: the session cache alone answers.
	req := requestWith(t, e, session.Payment{Email: "p1@example.com", Verified: true})
	if !e.HasAccess(httptest.NewRecorder(), req) {
		t.Fatal("verified session must grant access without a ledger row")
	}
}

func TestLedgerFallbackPopulatesCache(t *testing.T) {
	e := setupEngine(t)
	if err := e.Ledger.GrantAccess("p1@example.com", "ref-1", 30*24*time.Hour); err != nil {
		t.Fatal(err)
	}
	req := requestWith(t, e, session.Payment{Email: "p1@example.com"})
	w := httptest.NewRecorder()
	if !e.HasAccess(w, req) {
		t.Fatal("live grant must authorize")
	}
	// The engine should have re-written the cookie with the cache set.
	follow := httptest.NewRequest(http.MethodGet, "/apply", nil)
	for _, c := range w.Result().Cookies() {
		follow.AddCookie(c)
	}
	if got := e.Sessions.Get(follow); !got.Verified {
		t.Fatalf("expected verified cache populated, got %+v", got)
	}
}

func TestEmptySessionDenied(t *testing.T) {
	e := setupEngine(t)
	req := httptest.NewRequest(http.MethodGet, "/apply", nil)
	if e.HasAccess(httptest.NewRecorder(), req) {
		t.Fatal("empty session must be denied")
	}
}

func TestExpiredGrantDenied(t *testing.T) {
	e := setupEngine(t)
	if err := e.Ledger.GrantAccess("p1@example.com", "ref-1", -time.Minute); err != nil {
		t.Fatal(err)
	}
	req := requestWith(t, e, session.Payment{Email: "p1@example.com"})
	if e.HasAccess(httptest.NewRecorder(), req) {
		t.Fatal("expired grant must be denied")
	}
}

func TestRequiredRedirectsToPaymentFlow(t *testing.T) {
	e := setupEngine(t)
	gated := Required(e, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	gated.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/apply", nil))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/payment" {
		t.Fatalf("expected redirect to /payment got %s", loc)
	}

	// With access the wrapped handler runs.
	if err := e.Ledger.GrantAccess("p1@example.com", "ref-1", time.Hour); err != nil {
		t.Fatal(err)
	}
	req := requestWith(t, e, session.Payment{Email: "p1@example.com"})
	w = httptest.NewRecorder()
	gated.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
}

func TestConsumeSpendsThePayment(t *testing.T) {
	e := setupEngine(t)
	if err := e.Ledger.GrantAccess("p1@example.com", "ref-1", time.Hour); err != nil {
		t.Fatal(err)
	}
	req := requestWith(t, e, session.Payment{Email: "p1@example.com", Verified: true})
	w := httptest.NewRecorder()
	e.Consume(w, req)

	if active, _ := e.Ledger.IsActive("p1@example.com", time.Now()); active {
		t.Fatal("consume must deactivate the grant")
	}
	// The cleared cookie must not authorize a second submission.
	follow := httptest.NewRequest(http.MethodGet, "/apply", nil)
	for _, c := range w.Result().Cookies() {
		follow.AddCookie(c)
	}
	if e.HasAccess(httptest.NewRecorder(), follow) {
		t.Fatal("consumed session still has access")
	}
}
