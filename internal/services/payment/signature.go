package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signature computes the hex HMAC-SHA256 the gateway signs settlement
// callbacks with: the secret over "<orderID>|<paymentID>".
func Signature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// signatureMatches compares in constant time so verification leaks no
// timing information about secret-derived content.
func signatureMatches(secret, orderID, paymentID, got string) bool {
	expected := Signature(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(got))
}
