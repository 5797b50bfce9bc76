package main;

// Print the canary hash for a username/password so it can be loaded into the WAF.

import (
   "fmt"
   "io"
   "os"

   "github.com/eriq-augustine/wafcanary/canary"
);

func main() {
   os.Exit(run(os.Args, os.Stdout, os.Stderr));
}

// Returns the exit code.
func run(args []string, stdout io.Writer, stderr io.Writer) int {
   hash, err := canary.Compute(args);
   if (err != nil) {
      fmt.Fprintln(stderr, err.Error());
      return 1;
   }

   fmt.Fprintln(stdout, hash);
   return 0;
}
