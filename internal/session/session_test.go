package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func roundTrip(t *testing.T, store *Store, p Payment) Payment {
	t.Helper()
	w := httptest.NewRecorder()
	store.Set(w, p)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	return store.Get(req)
}

func TestRoundTrip(t *testing.T) {
	store := NewStore("test-secret")
	in := Payment{Email: "p1@example.com", Reference: "ref-1", Verified: true, InProgress: false}
	out := roundTrip(t, store, in)
	if out != in {
		t.Fatalf("round trip changed session: %+v != %+v", out, in)
	}
}

func TestMissingCookieIsEmpty(t *testing.T) {
	store := NewStore("test-secret")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := store.Get(req); got != (Payment{}) {
		t.Fatalf("expected empty session got %+v", got)
	}
}

func TestTamperedCookieIsEmpty(t *testing.T) {
	store := NewStore("test-secret")
	w := httptest.NewRecorder()
	store.Set(w, Payment{Email: "p1@example.com", Verified: true})
	c := w.Result().Cookies()[0]

	// Flip a byte in the payload, keep the signature.
	parts := strings.SplitN(c.Value, ".", 2)
	mutated := "A" + parts[0][1:] + "." + parts[1]
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: c.Name, Value: mutated})
	if got := store.Get(req); got != (Payment{}) {
		t.Fatalf("tampered cookie must read empty, got %+v", got)
	}
}

func TestWrongSecretIsEmpty(t *testing.T) {
	a := NewStore("secret-a")
	b := NewStore("secret-b")
	w := httptest.NewRecorder()
	a.Set(w, Payment{Email: "p1@example.com", Verified: true})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	if got := b.Get(req); got != (Payment{}) {
		t.Fatalf("foreign signature must read empty, got %+v", got)
	}
}

func TestClear(t *testing.T) {
	store := NewStore("test-secret")
	w := httptest.NewRecorder()
	store.Clear(w)
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != "" || cookies[0].MaxAge != -1 {
		t.Fatalf("unexpected clear cookie %+v", cookies)
	}
}
