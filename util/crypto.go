package util;

import (
   "crypto/sha256"
   "crypto/subtle"
   "encoding/hex"
)

// Get the SHA2-256 hex string.
func SHA256Hex(data []byte) string {
   sum := sha256.Sum256(data);
   return hex.EncodeToString(sum[:]);
}

// Compare two strings without leaking where they differ.
func ConstantTimeEquals(a string, b string) bool {
   return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1;
}
