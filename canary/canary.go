package canary;

// Canaries are SHA2-256 digests of a username and password joined by a NUL byte.
// A WAF holding only the digest can recognize the credential when it is
// submitted without ever storing the plaintext.

import (
   "crypto/sha256"
   "encoding/hex"
   "strings"
   "unicode/utf8"

   "github.com/eriq-augustine/wafcanary/util"
)

const (
   SEPARATOR = byte(0x00)
   HASH_LENGTH = sha256.Size
   HEX_LENGTH = HASH_LENGTH * 2
)

type Credential struct {
   Username string `json:"username"`
   Password string `json:"password"`
}

func (this Credential) Hash() string {
   return Hash(this.Username, this.Password);
}

func Sum(username string, password string) [HASH_LENGTH]byte {
   return sha256.Sum256(payload(username, password));
}

// Lowercase hex of Sum().
func Hash(username string, password string) string {
   return util.SHA256Hex(payload(username, password));
}

// Takes a full argv (program name included) and returns the canary hash.
// Exactly two user arguments are accepted.
func Compute(argv []string) (string, error) {
   if (len(argv) != 3) {
      var program string = "";
      if (len(argv) > 0) {
         program = argv[0];
      }

      return "", NewUsageError(program);
   }

   if (!utf8.ValidString(argv[1])) {
      return "", NewEncodingError("username is not valid UTF-8");
   }

   if (!utf8.ValidString(argv[2])) {
      return "", NewEncodingError("password is not valid UTF-8");
   }

   return Hash(argv[1], argv[2]), nil;
}

// Clean up a hash that came from a person or a file.
func NormalizeHash(hash string) (string, error) {
   var clean string = strings.ToLower(strings.TrimSpace(hash));

   if (len(clean) != HEX_LENGTH) {
      return "", NewInvalidHashError(hash, "expected 64 hex characters");
   }

   _, err := hex.DecodeString(clean);
   if (err != nil) {
      return "", NewInvalidHashError(hash, "not hex");
   }

   return clean, nil;
}

// Does the stored hash belong to this username/password?
// Malformed hashes never match.
func Matches(hash string, username string, password string) bool {
   clean, err := NormalizeHash(hash);
   if (err != nil) {
      return false;
   }

   return util.ConstantTimeEquals(clean, Hash(username, password));
}

// Split free-form text (spaces, tabs, newlines) into hashes.
// Nothing is validated here, see NormalizeHash().
func SplitHashes(text string) []string {
   return strings.Fields(text);
}

func payload(username string, password string) []byte {
   var data []byte = make([]byte, 0, len(username) + 1 + len(password));
   data = append(data, username...);
   data = append(data, SEPARATOR);
   data = append(data, password...);
   return data;
}
