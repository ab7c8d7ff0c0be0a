// Package access answers "is this request allowed to see the application
// form". The decision is a two-tier lookup: the signed session cookie is the
// fast path, the ledger is the authority. The engine only ever reads grants;
// writing them belongs to the verification and webhook paths.
package access

import (
	"log"
	"net/http"
	"time"

	"github.com/Yusuf-Babagana/smahi/internal/ledger"
	"github.com/Yusuf-Babagana/smahi/internal/session"
)

// Engine reconciles session state against the access ledger.
type Engine struct {
	Sessions *session.Store
	Ledger   *ledger.Ledger
}

func NewEngine(sessions *session.Store, l *ledger.Ledger) *Engine {
	return &Engine{Sessions: sessions, Ledger: l}
}

// HasAccess implements the gate decision. The same call backs both the
// request-gating middleware and the submission handler, so the two cannot
// disagree within one request.
func (e *Engine) HasAccess(w http.ResponseWriter, r *http.Request) bool {
	sess := e.Sessions.Get(r)
	if sess.Verified {
		return true
	}
	if sess.Email == "" {
		return false
	}
	active, err := e.Ledger.IsActive(sess.Email, time.Now())
	if err != nil {
		log.Printf("access: ledger lookup for %s failed: %v", sess.Email, err)
		return false
	}
	if !active {
		return false
	}
	// Populate the session cache so later requests skip the ledger.
	sess.Verified = true
	e.Sessions.Set(w, sess)
	return true
}

// Consume is the form-completion signal: it spends the payment by clearing
// the session cache and deactivating the ledger grant. One payment
// authorizes exactly one submission.
func (e *Engine) Consume(w http.ResponseWriter, r *http.Request) {
	sess := e.Sessions.Get(r)
	email := sess.Email
	e.Sessions.Clear(w)
	if email == "" {
		return
	}
	if err := e.Ledger.Deactivate(email); err != nil {
		log.Printf("access: deactivating grant for %s failed: %v", email, err)
	}
}

// Required gates a handler behind HasAccess, redirecting payers who have not
// paid (or whose grant expired) to the payment flow.
func Required(e *Engine, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !e.HasAccess(w, r) {
			http.Redirect(w, r, "/payment", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
