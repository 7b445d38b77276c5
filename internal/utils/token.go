// Package utils holds small helpers shared across layers.
package utils

import (
    "crypto/rand"
    "encoding/hex"
)

// NewHoldToken generates a random hexadecimal token of n bytes (2n hex
// characters) used to key general-admission holds. crypto/rand keeps
// tokens unguessable so a caller can only act on holds it was issued.
func NewHoldToken(n int) (string, error) {
    b := make([]byte, n)
    if _, err := rand.Read(b); err != nil {
        return "", err
    }
    return hex.EncodeToString(b), nil
}
