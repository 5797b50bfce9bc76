package canary;

import (
   "fmt"
)

// Wrong number of arguments.
type UsageError struct {
   program string
}

func NewUsageError(program string) *UsageError {
   return &UsageError{program};
}

func (this *UsageError) Error() string {
   return fmt.Sprintf("Usage: %s <username> <password>", this.program);
}

// Input that cannot be hashed as UTF-8.
type EncodingError struct {
   message string
}

func NewEncodingError(message string) *EncodingError {
   return &EncodingError{message};
}

func (this *EncodingError) Error() string {
   return "Encoding Error: " + this.message;
}

type InvalidHashError struct {
   hash string
   message string
}

func NewInvalidHashError(hash string, message string) *InvalidHashError {
   return &InvalidHashError{hash, message};
}

func (this *InvalidHashError) Error() string {
   return fmt.Sprintf("Invalid Hash Error: [%s] %s", this.hash, this.message);
}
