package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/Yusuf-Babagana/smahi/internal/httpx"
	"github.com/Yusuf-Babagana/smahi/internal/ledger"
	"github.com/Yusuf-Babagana/smahi/internal/models"
	"github.com/Yusuf-Babagana/smahi/internal/money"
	"github.com/Yusuf-Babagana/smahi/internal/paystack"
)

// maxWebhookBody bounds the body read; real charge events are a few KB.
const maxWebhookBody = 1 << 20

// WebhookHandler reconciles asynchronous charge notifications from the
// processor into the ledger. It races the browser verification path on the
// same reference; the conditional update in the ledger makes redelivery and
// the race both harmless.
type WebhookHandler struct {
	Ledger *ledger.Ledger
	Secret string
}

func NewWebhookHandler(l *ledger.Ledger, secret string) *WebhookHandler {
	return &WebhookHandler{Ledger: l, Secret: secret}
}

func (h *WebhookHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/payment/webhook", h.handle)
}

func (h *WebhookHandler) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "unreadable_body")
		return
	}

	// Authenticity first: nothing is parsed, let alone written, before the
	// signature over the raw body checks out.
	sig := r.Header.Get(paystack.SignatureHeader)
	if !paystack.ValidSignature(h.Secret, body, sig) {
		log.Printf("webhook: invalid signature from %s", r.RemoteAddr)
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_signature")
		return
	}

	ev, err := paystack.ParseEvent(body)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if ev.Event != paystack.EventChargeSuccess {
		// Not a watched event; acknowledge so the processor stops retrying.
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	reference := ev.Data.Reference
	email := ev.Data.Customer.Email
	if reference == "" || email == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	// The webhook may arrive before, after, or instead of the browser
	// redirect; look up or create, then apply the one conditional transition.
	amount := money.FromMinorUnits(ev.Data.Amount)
	tx, err := h.Ledger.FindOrCreateByReference(reference, email, amount)
	if err != nil {
		log.Printf("webhook: %s: %v", reference, err)
		httpx.JSONError(w, http.StatusInternalServerError, "ledger_error")
		return
	}
	applied, err := h.Ledger.MarkResult(reference, models.StatusSuccess)
	if err != nil && !errors.Is(err, ledger.ErrNotFound) {
		log.Printf("webhook: mark %s: %v", reference, err)
		httpx.JSONError(w, http.StatusInternalServerError, "ledger_error")
		return
	}
	if applied {
		if err := h.Ledger.GrantAccess(tx.Email, reference, AccessTTL); err != nil {
			log.Printf("webhook: grant %s: %v", reference, err)
			httpx.JSONError(w, http.StatusInternalServerError, "ledger_error")
			return
		}
		log.Printf("webhook: payment verified for %s - %s", tx.Email, reference)
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "success"})
}
