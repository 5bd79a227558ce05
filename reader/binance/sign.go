package binance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Credentials holds an API key pair. It is passed explicitly into every
// client that needs it; there is no process-wide credential state.
type Credentials struct {
	APIKey    string
	APISecret string
}

// Configured reports whether both halves of the key pair are present.
func (c Credentials) Configured() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// Sign computes the hex HMAC-SHA256 of the exact query-string bytes that
// will be sent upstream.
func (c Credentials) Sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.APISecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}
