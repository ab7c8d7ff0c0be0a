package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/Yusuf-Babagana/smahi/internal/access"
	"github.com/Yusuf-Babagana/smahi/internal/ledger"
	"github.com/Yusuf-Babagana/smahi/internal/models"
	"github.com/Yusuf-Babagana/smahi/internal/services"
	"github.com/Yusuf-Babagana/smahi/internal/session"
)

func newApplyHandler(t *testing.T) (*ApplyHandler, *gorm.DB, *ledger.Ledger) {
	t.Helper()
	db, led := setupHandlerDB(t)
	engine := access.NewEngine(session.NewStore("test-secret"), led)
	h := NewApplyHandler(engine, services.NewApplicantService(db), services.LogMailer{}, t.TempDir())
	return h, db, led
}

type applicationForm struct {
	fields  map[string]string
	cv      []byte
	cvName  string
	receipt []byte
}

func defaultForm() applicationForm {
	return applicationForm{
		fields: map[string]string{
			"full_name":        "Ada Okafor",
			"email":            "ada@example.com",
			"phone":            "+2348012345678",
			"address":          "12 Marina Road, Lagos",
			"state":            "lagos",
			"position_applied": "agent",
		},
		cv:     []byte("%PDF-1.4 cv"),
		cvName: "cv.pdf",
	}
}

func postApplication(t *testing.T, h *ApplyHandler, form applicationForm, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range form.fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if form.cv != nil {
		fw, err := mw.CreateFormFile("cv", form.cvName)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(form.cv); err != nil {
			t.Fatal(err)
		}
	}
	if form.receipt != nil {
		fw, err := mw.CreateFormFile("receipt", "receipt.png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(form.receipt); err != nil {
			t.Fatal(err)
		}
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/apply", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func paidCookies(t *testing.T, h *ApplyHandler, email, reference string) []*http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	h.Engine.Sessions.Set(w, session.Payment{Email: email, Reference: reference, Verified: true})
	return w.Result().Cookies()
}

func TestApplySubmission(t *testing.T) {
	h, db, led := newApplyHandler(t)
	if err := led.GrantAccess("ada@example.com", "ref-1", time.Hour); err != nil {
		t.Fatal(err)
	}
	cookies := paidCookies(t, h, "ada@example.com", "ref-1")

	w := postApplication(t, h, defaultForm(), cookies)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d body=%s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); !strings.HasPrefix(loc, "/applications/success?id=") {
		t.Fatalf("unexpected redirect %s", loc)
	}

	var app models.Applicant
	if err := db.First(&app).Error; err != nil {
		t.Fatalf("applicant not stored: %v", err)
	}
	if app.FullName != "Ada Okafor" || app.State != "lagos" {
		t.Fatalf("unexpected applicant %+v", app)
	}
	// Payment snapshot stamped from the session, verified flag derived.
	if app.PaymentEmail != "ada@example.com" || app.PaymentReference != "ref-1" || !app.PaymentVerified {
		t.Fatalf("payment snapshot missing: %+v", app)
	}
	if app.CVPath == "" {
		t.Fatal("cv path not recorded")
	}
	if app.ReceiptPath != "" {
		t.Fatal("no receipt uploaded but path recorded")
	}

	// The grant was spent: one payment, one submission.
	if active, _ := led.IsActive("ada@example.com", time.Now()); active {
		t.Fatal("grant still active after submission")
	}
}

func TestApplySubmissionWithReceipt(t *testing.T) {
	h, db, led := newApplyHandler(t)
	if err := led.GrantAccess("ada@example.com", "ref-1", time.Hour); err != nil {
		t.Fatal(err)
	}
	form := defaultForm()
	form.receipt = []byte("\x89PNG fake")
	w := postApplication(t, h, form, paidCookies(t, h, "ada@example.com", "ref-1"))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d", w.Code)
	}
	var app models.Applicant
	if err := db.First(&app).Error; err != nil {
		t.Fatal(err)
	}
	if app.ReceiptPath == "" {
		t.Fatal("receipt path not recorded")
	}
}

func TestApplyWithoutAccessRedirects(t *testing.T) {
	h, db, _ := newApplyHandler(t)
	w := postApplication(t, h, defaultForm(), nil)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/payment" {
		t.Fatalf("expected redirect to /payment got %d %s", w.Code, w.Header().Get("Location"))
	}
	var count int64
	db.Model(&models.Applicant{}).Count(&count)
	if count != 0 {
		t.Fatal("unpaid submission stored")
	}
}

func TestApplyMissingCV(t *testing.T) {
	h, db, led := newApplyHandler(t)
	if err := led.GrantAccess("ada@example.com", "ref-1", time.Hour); err != nil {
		t.Fatal(err)
	}
	form := defaultForm()
	form.cv = nil
	w := postApplication(t, h, form, paidCookies(t, h, "ada@example.com", "ref-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected re-render got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "CV") {
		t.Fatalf("expected CV error, body=%s", w.Body.String())
	}
	var count int64
	db.Model(&models.Applicant{}).Count(&count)
	if count != 0 {
		t.Fatal("invalid submission stored")
	}
	// A rejected submission must not spend the grant.
	if active, _ := led.IsActive("ada@example.com", time.Now()); !active {
		t.Fatal("grant consumed by a rejected submission")
	}
}

func TestApplyRejectsBadCVType(t *testing.T) {
	h, db, led := newApplyHandler(t)
	if err := led.GrantAccess("ada@example.com", "ref-1", time.Hour); err != nil {
		t.Fatal(err)
	}
	form := defaultForm()
	form.cvName = "cv.exe"
	w := postApplication(t, h, form, paidCookies(t, h, "ada@example.com", "ref-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected re-render got %d", w.Code)
	}
	var count int64
	db.Model(&models.Applicant{}).Count(&count)
	if count != 0 {
		t.Fatal("bad upload stored")
	}
}

func TestApplyRejectsUnknownState(t *testing.T) {
	h, _, led := newApplyHandler(t)
	if err := led.GrantAccess("ada@example.com", "ref-1", time.Hour); err != nil {
		t.Fatal(err)
	}
	form := defaultForm()
	form.fields["state"] = "atlantis"
	w := postApplication(t, h, form, paidCookies(t, h, "ada@example.com", "ref-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected re-render got %d", w.Code)
	}
}
