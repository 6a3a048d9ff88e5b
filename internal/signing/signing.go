// Package signing implements the HMAC-SHA256 request signing used by the
// private channel handshakes in spec §4.4 -- hex encoding for
// Bybit/Lighter/Aster, base64 for OKX.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// HMACHex returns the hex-encoded HMAC-SHA256 of message under secret.
func HMACHex(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// HMACBase64 returns the base64-encoded HMAC-SHA256 of message under
// secret (OKX's signing convention).
func HMACBase64(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
