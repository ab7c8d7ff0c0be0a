package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Yusuf-Babagana/smahi/internal/httpx"
	"github.com/Yusuf-Babagana/smahi/internal/ledger"
	"github.com/Yusuf-Babagana/smahi/internal/models"
	"github.com/Yusuf-Babagana/smahi/internal/money"
	"github.com/Yusuf-Babagana/smahi/internal/paystack"
	"github.com/Yusuf-Babagana/smahi/internal/session"
	"github.com/Yusuf-Babagana/smahi/internal/validation"
	"github.com/Yusuf-Babagana/smahi/internal/view"
)

// AccessTTL is the validity window opened by one successful payment,
// counted from the moment the success is processed.
const AccessTTL = 30 * 24 * time.Hour

// Gateway is the slice of the payment processor client the handlers need.
// *paystack.Client satisfies it; tests substitute a stub.
type Gateway interface {
	Initialize(ctx context.Context, email string, amountMinor int64, reference, callbackURL string) (string, error)
	Verify(ctx context.Context, reference string) (paystack.VerifyResult, error)
}

// PaymentHandler drives the payer-facing half of the flow: the gateway page
// and the browser-return verification endpoint.
type PaymentHandler struct {
	Ledger   *ledger.Ledger
	Gateway  Gateway
	Sessions *session.Store
	BaseURL  string
}

func NewPaymentHandler(l *ledger.Ledger, gw Gateway, sessions *session.Store, baseURL string) *PaymentHandler {
	return &PaymentHandler{Ledger: l, Gateway: gw, Sessions: sessions, BaseURL: baseURL}
}

func (h *PaymentHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/payment", h.gatewayPage)
	mux.HandleFunc("/payment/verify", h.verify)
}

// render uses the shared view.Render to keep layout and funcs consistent.
func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if err := view.Render(w, r, name+".html", data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte("template error")); werr != nil {
			_ = werr
		}
	}
}

func (h *PaymentHandler) gatewayPage(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "payment_gateway", map[string]any{"Fee": money.Fee, "Flash": popFlash(w, r)})
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form")
		return
	}
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	v := validation.Violations{}
	validation.Email("email", email, v)
	if !v.Empty() {
		renderTemplate(w, r, "payment_gateway", map[string]any{"Fee": money.Fee, "Error": "Please provide a valid email address."})
		return
	}

	amountMinor, err := money.ToMinorUnits(money.Fee)
	if err != nil {
		// Unreachable for the fixed fee; keep the guard anyway.
		log.Printf("payment: fee conversion: %v", err)
		renderTemplate(w, r, "payment_gateway", map[string]any{"Fee": money.Fee, "Error": "Payment initialization failed. Please try again."})
		return
	}
	reference := uuid.NewString()
	callbackURL := strings.TrimRight(h.BaseURL, "/") + "/payment/verify"

	authURL, err := h.Gateway.Initialize(r.Context(), email, amountMinor, reference, callbackURL)
	if err != nil {
		msg := "Payment initialization failed. Please try again."
		if errors.Is(err, paystack.ErrUnavailable) {
			msg = "The payment service is temporarily unavailable. Please try again in a moment."
		}
		var apiErr *paystack.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			msg = apiErr.Message
		}
		log.Printf("payment: initialize %s: %v", reference, err)
		renderTemplate(w, r, "payment_gateway", map[string]any{"Fee": money.Fee, "Error": msg})
		return
	}

	if _, err := h.Ledger.RecordAttempt(email, money.Fee, reference); err != nil {
		log.Printf("payment: record attempt %s: %v", reference, err)
		renderTemplate(w, r, "payment_gateway", map[string]any{"Fee": money.Fee, "Error": "Payment initialization failed. Please try again."})
		return
	}

	h.Sessions.Set(w, session.Payment{Email: email, Reference: reference, InProgress: true})
	http.Redirect(w, r, authURL, http.StatusSeeOther)
}

func (h *PaymentHandler) verify(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("reference")
	sess := h.Sessions.Get(r)
	if reference == "" || sess.Email == "" {
		setFlash(w, "Invalid payment verification. Please try the payment again.")
		http.Redirect(w, r, "/payment", http.StatusSeeOther)
		return
	}
	// The reference must belong to this session's payer. A recorded
	// transaction under someone else's email proves nothing about the
	// current visitor, so it is treated as not found.
	if tx, err := h.Ledger.Transaction(reference); err == nil && tx.Email != sess.Email {
		log.Printf("payment: verify %s: reference not owned by %s", reference, sess.Email)
		renderTemplate(w, r, "payment_failed", map[string]any{
			"Error": "Transaction not found. Please try the payment again.",
		})
		return
	}

	res, err := h.Gateway.Verify(r.Context(), reference)
	if err != nil {
		if errors.Is(err, paystack.ErrUnavailable) {
			// Not a rejection: the transaction stays pending and the payer
			// can retry, or the webhook will settle it.
			log.Printf("payment: verify %s transport failure: %v", reference, err)
			renderTemplate(w, r, "payment_failed", map[string]any{
				"Error": "We could not reach the payment service to confirm your payment. Please try again shortly.",
			})
			return
		}
		log.Printf("payment: verify %s rejected: %v", reference, err)
		h.markFailed(w, reference, sess)
		renderTemplate(w, r, "payment_failed", map[string]any{
			"Error": "Payment verification failed. Please try again.",
		})
		return
	}
	if !res.Success {
		h.markFailed(w, reference, sess)
		renderTemplate(w, r, "payment_failed", map[string]any{
			"Error": "Payment was not successful (" + res.Status + "). Please try again.",
		})
		return
	}

	// Webhook and browser race on the same reference; whichever applies the
	// terminal transition first also applies the grant, the other is a no-op.
	tx, err := h.Ledger.FindOrCreateByReference(reference, sess.Email, money.Fee)
	if err != nil {
		log.Printf("payment: verify %s: %v", reference, err)
		renderTemplate(w, r, "payment_failed", map[string]any{"Error": "Something went wrong recording your payment. Please contact support."})
		return
	}
	if tx.Email != sess.Email {
		// The webhook recorded this reference for another payer between the
		// ownership check and the lookup.
		log.Printf("payment: verify %s: reference not owned by %s", reference, sess.Email)
		renderTemplate(w, r, "payment_failed", map[string]any{
			"Error": "Transaction not found. Please try the payment again.",
		})
		return
	}
	applied, err := h.Ledger.MarkResult(reference, models.StatusSuccess)
	if err != nil {
		log.Printf("payment: verify %s mark: %v", reference, err)
		renderTemplate(w, r, "payment_failed", map[string]any{"Error": "Something went wrong recording your payment. Please contact support."})
		return
	}
	if applied {
		if err := h.Ledger.GrantAccess(tx.Email, reference, AccessTTL); err != nil {
			log.Printf("payment: grant %s: %v", reference, err)
		}
	}

	// The session's verified flag is only a cache over the ledger; it is set
	// when this call granted access, or when a live grant already exists
	// (webhook settled first). A spent grant stays spent.
	verified := applied
	if !verified {
		if active, aerr := h.Ledger.IsActive(tx.Email, time.Now()); aerr == nil && active {
			verified = true
		}
	}
	h.Sessions.Set(w, session.Payment{Email: tx.Email, Reference: reference, Verified: verified, InProgress: false})
	renderTemplate(w, r, "payment_success", map[string]any{"Transaction": tx})
}

// markFailed applies the failed terminal state and clears the in-progress
// flag. An earlier active grant for the email is deliberately untouched.
func (h *PaymentHandler) markFailed(w http.ResponseWriter, reference string, sess session.Payment) {
	if _, err := h.Ledger.MarkResult(reference, models.StatusFailed); err != nil && !errors.Is(err, ledger.ErrNotFound) {
		log.Printf("payment: mark failed %s: %v", reference, err)
	}
	sess.InProgress = false
	h.Sessions.Set(w, sess)
}
