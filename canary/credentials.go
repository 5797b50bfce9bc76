package canary;

import (
   "bufio"
   "io"
   "strings"

   "github.com/pkg/errors"
)

const (
   CREDENTIAL_DELIM = "\t"
)

// Read credentials, one per line: "username<TAB>password".
// Blank lines are skipped. Everything after the first tab is the password.
func ReadCredentials(reader io.Reader) ([]Credential, error) {
   var credentials []Credential = make([]Credential, 0);
   var scanner *bufio.Scanner = bufio.NewScanner(reader);

   var lineNumber int = 0;
   for scanner.Scan() {
      lineNumber++;

      var line string = strings.TrimRight(scanner.Text(), "\r");
      if (strings.TrimSpace(line) == "") {
         continue;
      }

      parts := strings.SplitN(line, CREDENTIAL_DELIM, 2);
      if (len(parts) != 2) {
         return nil, errors.Errorf("Line %d: expected <username><TAB><password>.", lineNumber);
      }

      credentials = append(credentials, Credential{parts[0], parts[1]});
   }

   err := scanner.Err();
   if (err != nil) {
      return nil, errors.Wrap(err, "Failed to read credentials.");
   }

   return credentials, nil;
}
