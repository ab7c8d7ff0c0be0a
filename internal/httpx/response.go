// Package httpx writes the portal's machine-readable responses: the webhook
// acknowledgements Paystack retries against and the health endpoints. Pages
// meant for people go through the view package instead.
package httpx

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error string `json:"error"`
}

// JSON writes payload with the given status. A nil payload encodes as null.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	body := []byte("null")
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			// avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// nothing we can do at this point
		_ = err
	}
}

// JSONError writes {"error": code} with the given status. code is a short
// stable identifier, not display text.
func JSONError(w http.ResponseWriter, status int, code string) {
	JSON(w, status, errorResponse{Error: code})
}
