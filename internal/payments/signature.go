package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrSignatureInvalid rejects webhook deliveries whose signature header does
// not match the payload. Nothing unsigned is trusted.
var ErrSignatureInvalid = errors.New("webhook signature invalid")

// VerifySignature checks the gateway's HMAC-SHA256 hex signature over the raw
// request body using a constant-time comparison.
func VerifySignature(body []byte, signature, secret string) error {
	if signature == "" {
		return ErrSignatureInvalid
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureInvalid
	}
	return nil
}

// Sign computes the signature the gateway would attach to body. Exported for
// tests and local tooling.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
