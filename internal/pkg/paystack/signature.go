package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// SignatureStatus is the outcome of webhook signature verification.
type SignatureStatus int

const (
	SignatureValid SignatureStatus = iota
	SignatureInvalid
	SignatureMissingSecret
)

// CheckWebhookSignature verifies that the raw webhook body was signed by
// Paystack: hex(HMAC-SHA512(body, secret)) must equal the X-Paystack-Signature
// header. The body must be the untouched request bytes; re-serializing the
// payload before verification changes byte content and breaks the comparison.
func CheckWebhookSignature(payload []byte, signatureHeader, webhookSecret string) SignatureStatus {
	secret := strings.TrimSpace(webhookSecret)
	if secret == "" {
		return SignatureMissingSecret
	}

	sig := strings.TrimSpace(signatureHeader)
	if sig == "" {
		return SignatureInvalid
	}

	decodedSig, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return SignatureInvalid
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	if hmac.Equal(mac.Sum(nil), decodedSig) {
		return SignatureValid
	}
	return SignatureInvalid
}
