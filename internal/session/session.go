// Package session carries the payment flow's request-scoped state in one
// HMAC-signed cookie. The cookie is a cache over the durable ledger, never a
// source of truth: a tampered or unreadable cookie simply reads as empty.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"
)

const cookieName = "payment_session"

// Payment is the session state for one payer's journey through the flow.
type Payment struct {
	Email      string `json:"email,omitempty"`
	Reference  string `json:"reference,omitempty"`
	Verified   bool   `json:"verified,omitempty"`
	InProgress bool   `json:"in_progress,omitempty"`
}

// Store signs and writes payment sessions. Secret must be shared across
// instances serving the same cookies.
type Store struct {
	secret []byte
}

// NewStore builds a store with an explicit secret.
func NewStore(secret string) *Store { return &Store{secret: []byte(secret)} }

// SecretFromEnv returns SESSION_SECRET or a dev default.
func SecretFromEnv() string {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	return "devsessionsecret"
}

// Get reads the payment session from the request. Missing, malformed, or
// badly signed cookies all return the zero session.
func (s *Store) Get(r *http.Request) Payment {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return Payment{}
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 2 {
		return Payment{}
	}
	payload, sig := parts[0], parts[1]
	if !hmac.Equal([]byte(sig), []byte(s.sign(payload))) {
		return Payment{}
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Payment{}
	}
	var p Payment
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payment{}
	}
	return p
}

// Set writes the payment session cookie.
func (s *Store) Set(w http.ResponseWriter, p Payment) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    payload + "." + s.sign(payload),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
}

// Clear deletes the payment session cookie.
func (s *Store) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

func (s *Store) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
