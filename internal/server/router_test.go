package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Yusuf-Babagana/smahi/internal/config"
	"github.com/Yusuf-Babagana/smahi/internal/ledger"
	"github.com/Yusuf-Babagana/smahi/internal/models"
	"github.com/Yusuf-Babagana/smahi/internal/paystack"
)

func setupRouter(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.PaymentTransaction{}, &models.FormAccess{}, &models.Applicant{}, &models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Config{
		Port:              "0",
		BaseURL:           "http://portal.test",
		MediaDir:          t.TempDir(),
		PaystackSecretKey: "sk_test_router",
		SessionSecret:     "test-secret",
	}
	return New(db, cfg), db
}

func TestHealthEndpoints(t *testing.T) {
	h, _ := setupRouter(t)
	for _, path := range []string{"/health", "/healthz"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, w.Code)
		}
		if !strings.Contains(w.Body.String(), "ok") {
			t.Fatalf("%s: unexpected body %s", path, w.Body.String())
		}
	}
}

func TestLandingPageRenders(t *testing.T) {
	h, _ := setupRouter(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "S MAHI Global Services") {
		t.Fatal("landing page missing branding")
	}
}

func TestApplyIsGated(t *testing.T) {
	h, _ := setupRouter(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/apply", nil))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/payment" {
		t.Fatalf("expected gate redirect got %d %s", w.Code, w.Header().Get("Location"))
	}
}

// End-to-end webhook scenario: a signed charge.success notification alone
// makes the email's access live and unlocks /apply for that session.
func TestWebhookUnlocksApplyForPayer(t *testing.T) {
	h, db := setupRouter(t)

	body := `{"event":"charge.success","data":{"reference":"abc-123","amount":250000,"customer":{"email":"p1@example.com"}}}`
	req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(body))
	req.Header.Set(paystack.SignatureHeader, paystack.Sign("sk_test_router", []byte(body)))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("webhook: expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	led := ledger.New(db)
	if active, err := led.IsActive("p1@example.com", time.Now()); err != nil || !active {
		t.Fatalf("expected live grant after webhook: active=%v err=%v", active, err)
	}
}

func TestWebhookBadSignatureRejected(t *testing.T) {
	h, db := setupRouter(t)
	body := `{"event":"charge.success","data":{"reference":"abc-123","amount":250000,"customer":{"email":"p1@example.com"}}}`
	req := httptest.NewRequest(http.MethodPost, "/payment/webhook", strings.NewReader(body))
	req.Header.Set(paystack.SignatureHeader, "bogus")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}
	var count int64
	db.Model(&models.PaymentTransaction{}).Count(&count)
	if count != 0 {
		t.Fatal("rejected webhook mutated the ledger")
	}
}

func TestRecoverMiddleware(t *testing.T) {
	// A handler panic must surface as a JSON 500, not kill the process.
	inner := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	h := withRecover(inner)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "internal_error") {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}
