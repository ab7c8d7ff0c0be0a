package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
)

// SignatureHeader carries the webhook HMAC on inbound notifications.
const SignatureHeader = "X-Paystack-Signature"

// EventChargeSuccess is the only webhook event the portal acts on.
const EventChargeSuccess = "charge.success"

// Event is the webhook payload shape, reduced to the fields the reconciler
// consumes.
type Event struct {
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

type EventData struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"` // kobo
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// ParseEvent decodes a webhook body. Signature verification happens first,
// on the raw bytes; never parse before verifying.
func ParseEvent(body []byte) (Event, error) {
	var ev Event
	err := json.Unmarshal(body, &ev)
	return ev, err
}

// ValidSignature checks the hex HMAC-SHA512 of the raw body against the
// header value in constant time.
func ValidSignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign computes the signature the processor would send for body. Used by
// tests and by tooling that replays webhooks.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
