// Package utils holds small helpers shared by the device and the relay.
package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HashHeader is the header carrying the body signature.
const HashHeader = "HashSHA256"

// CalculateHash signs body with key.
func CalculateHash(body []byte, key string) string {
	h := hmac.New(sha256.New, []byte(key))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
