package wafadmin;

import (
   "fmt"
)

// A non-2xx response from the admin API.
type HTTPError struct {
   Status int
   Message string
}

func NewHTTPError(status int, message string) *HTTPError {
   return &HTTPError{status, message};
}

func (this *HTTPError) Error() string {
   return fmt.Sprintf("HTTP %d: %s", this.Status, this.Message);
}
