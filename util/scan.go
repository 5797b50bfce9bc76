package util;

import (
   "strconv"
   "strings"

   "github.com/pkg/errors"
)

// Parse a non-negative integer argument.
// |name| is only used in the error message.
func ParseNonNegativeInt(text string, name string) (int, error) {
   val, err := strconv.Atoi(strings.TrimSpace(text));
   if (err != nil) {
      return 0, errors.Wrapf(err, "Failed to parse %s '%s'.", name, text);
   }

   if (val < 0) {
      return 0, errors.Errorf("%s must be non-negative, got %d.", name, val);
   }

   return val, nil;
}
