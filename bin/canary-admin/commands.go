package main;

import (
   "encoding/json"
   "fmt"
   "os"
   "strings"

   "github.com/pkg/errors"

   "github.com/eriq-augustine/wafcanary/canary"
   "github.com/eriq-augustine/wafcanary/util"
   "github.com/eriq-augustine/wafcanary/wafadmin"
)

var commands map[string]commandInfo;

func init() {
   commands = make(map[string]commandInfo);

   var list = []commandInfo{
      commandInfo{
         Name: "health",
         Summary: "Check the admin API.",
         Function: health,
      },
      commandInfo{
         Name: "canaries",
         Summary: "List canary hashes.",
         Function: listCanaries,
         Args: []commandArg{
            commandArg{"cursor", true},
            commandArg{"count", true},
         },
      },
      commandInfo{
         Name: "addhash",
         Summary: "Add canary hashes.",
         Function: addHash,
         Args: []commandArg{
            commandArg{"hash", false},
         },
         Variatic: true,
      },
      commandInfo{
         Name: "addcred",
         Summary: "Add a canary credential (hashed here, prompts for the password if missing).",
         Function: addCredential,
         Args: []commandArg{
            commandArg{"username", false},
            commandArg{"password", true},
         },
      },
      commandInfo{
         Name: "import",
         Summary: "Add every credential in a file of <username><TAB><password> lines.",
         Function: importCredentials,
         Args: []commandArg{
            commandArg{"file", false},
         },
      },
      commandInfo{
         Name: "rmhash",
         Summary: "Remove canary hashes.",
         Function: removeHash,
         Args: []commandArg{
            commandArg{"hash", false},
         },
         Variatic: true,
      },
      commandInfo{
         Name: "rmcred",
         Summary: "Remove the canary for a credential.",
         Function: removeCredential,
         Args: []commandArg{
            commandArg{"username", false},
            commandArg{"password", true},
         },
      },
      commandInfo{
         Name: "hash",
         Summary: "Print the canary hash for a credential without contacting the WAF.",
         Function: hash,
         Args: []commandArg{
            commandArg{"username", false},
            commandArg{"password", false},
         },
      },
      commandInfo{
         Name: "check",
         Summary: "Check whether a hash belongs to a credential.",
         Function: check,
         Args: []commandArg{
            commandArg{"hash", false},
            commandArg{"username", false},
            commandArg{"password", true},
         },
      },
      commandInfo{
         Name: "bans",
         Summary: "List banned IPs.",
         Function: listBans,
         Args: []commandArg{
            commandArg{"cursor", true},
            commandArg{"count", true},
         },
      },
      commandInfo{
         Name: "ban",
         Summary: fmt.Sprintf("Ban an IP (TTL defaults to %d seconds).", wafadmin.DEFAULT_BAN_TTL_SECONDS),
         Function: ban,
         Args: []commandArg{
            commandArg{"ip", false},
            commandArg{"ttl seconds", true},
         },
      },
      commandInfo{
         Name: "getban",
         Summary: "Show a single ban.",
         Function: getBan,
         Args: []commandArg{
            commandArg{"ip", false},
         },
      },
      commandInfo{
         Name: "unban",
         Summary: "Lift a ban.",
         Function: unban,
         Args: []commandArg{
            commandArg{"ip", false},
         },
      },
      commandInfo{
         Name: "saveconfig",
         Summary: "Write the API base, token and page size to the config file.",
         Function: saveConfig,
      },
      commandInfo{
         Name: "help",
         Summary: "Show this message.",
         Function: help,
      },
   };

   for _, info := range(list) {
      commands[info.Name] = info;
   }
}

func health(adminShell *shell, args []string) error {
   status, err := adminShell.client.Health(adminShell.ctx);
   if (err != nil) {
      return errors.Wrap(err, "Health check failed.");
   }

   data, err := json.MarshalIndent(status, "", "   ");
   if (err != nil) {
      return errors.WithStack(err);
   }

   fmt.Fprintln(adminShell.out, "Healthy");
   fmt.Fprintln(adminShell.out, string(data));
   return nil;
}

func listCanaries(adminShell *shell, args []string) error {
   cursor, count, err := pageArgs(args);
   if (err != nil) {
      return errors.WithStack(err);
   }

   page, err := adminShell.client.ListCanaries(adminShell.ctx, cursor, count);
   if (err != nil) {
      return errors.Wrap(err, "Failed to list canaries.");
   }

   if (len(page.Hashes) == 0) {
      fmt.Fprintln(adminShell.out, "No canaries on this page.");
   }

   for _, hash := range(page.Hashes) {
      fmt.Fprintln(adminShell.out, hash);
   }

   printNextCursor(adminShell, page.HasNext(), page.Cursor);
   return nil;
}

func addHash(adminShell *shell, args []string) error {
   count, err := adminShell.client.AddHashes(adminShell.ctx, canary.SplitHashes(strings.Join(args, " ")));
   if (err != nil) {
      return errors.Wrap(err, "Failed to add hashes.");
   }

   fmt.Fprintf(adminShell.out, "Added %d hash(es)\n", count);
   return nil;
}

func addCredential(adminShell *shell, args []string) error {
   credential, err := credentialArgs(adminShell, args);
   if (err != nil) {
      return errors.WithStack(err);
   }

   _, err = adminShell.client.AddCredentials(adminShell.ctx, []canary.Credential{credential});
   if (err != nil) {
      return errors.Wrap(err, "Failed to add credential.");
   }

   fmt.Fprintln(adminShell.out, "Added 1 credential (hashed locally)");
   return nil;
}

func importCredentials(adminShell *shell, args []string) error {
   file, err := os.Open(args[0]);
   if (err != nil) {
      return errors.Wrapf(err, "Failed to open credentials file: %s", args[0]);
   }
   defer file.Close();

   credentials, err := canary.ReadCredentials(file);
   if (err != nil) {
      return errors.Wrapf(err, "Failed to read credentials file: %s", args[0]);
   }

   count, err := adminShell.client.AddCredentials(adminShell.ctx, credentials);
   if (err != nil) {
      return errors.Wrap(err, "Failed to add credentials.");
   }

   adminShell.logger.Debug("imported credentials", "path", args[0], "count", count);
   fmt.Fprintf(adminShell.out, "Added %d credential(s) (hashed locally)\n", count);
   return nil;
}

func removeHash(adminShell *shell, args []string) error {
   count, err := adminShell.client.DeleteCanaries(adminShell.ctx, canary.SplitHashes(strings.Join(args, " ")), nil);
   if (err != nil) {
      return errors.Wrap(err, "Failed to remove hashes.");
   }

   fmt.Fprintf(adminShell.out, "Removed %d hash(es)\n", count);
   return nil;
}

func removeCredential(adminShell *shell, args []string) error {
   credential, err := credentialArgs(adminShell, args);
   if (err != nil) {
      return errors.WithStack(err);
   }

   _, err = adminShell.client.DeleteCanaries(adminShell.ctx, nil, []canary.Credential{credential});
   if (err != nil) {
      return errors.Wrap(err, "Failed to remove credential.");
   }

   fmt.Fprintln(adminShell.out, "Removed 1 credential");
   return nil;
}

func hash(adminShell *shell, args []string) error {
   fmt.Fprintln(adminShell.out, canary.Hash(args[0], args[1]));
   return nil;
}

func check(adminShell *shell, args []string) error {
   _, err := canary.NormalizeHash(args[0]);
   if (err != nil) {
      return errors.WithStack(err);
   }

   credential, err := credentialArgs(adminShell, args[1:]);
   if (err != nil) {
      return errors.WithStack(err);
   }

   if (canary.Matches(args[0], credential.Username, credential.Password)) {
      fmt.Fprintln(adminShell.out, "Match");
   } else {
      fmt.Fprintln(adminShell.out, "No match");
   }

   return nil;
}

func listBans(adminShell *shell, args []string) error {
   cursor, count, err := pageArgs(args);
   if (err != nil) {
      return errors.WithStack(err);
   }

   page, err := adminShell.client.ListBans(adminShell.ctx, cursor, count);
   if (err != nil) {
      return errors.Wrap(err, "Failed to list bans.");
   }

   if (len(page.Bans) == 0) {
      fmt.Fprintln(adminShell.out, "No bans on this page.");
   }

   for _, entry := range(page.Bans) {
      fmt.Fprintf(adminShell.out, "%s\t%d\n", entry.IP, entry.TTLSeconds);
   }

   printNextCursor(adminShell, page.HasNext(), page.Cursor);
   return nil;
}

func ban(adminShell *shell, args []string) error {
   var ttl int = wafadmin.DEFAULT_BAN_TTL_SECONDS;
   if (len(args) == 2) {
      var err error;
      ttl, err = util.ParseNonNegativeInt(args[1], "ttl");
      if (err != nil) {
         return errors.WithStack(err);
      }
   }

   err := adminShell.client.Ban(adminShell.ctx, args[0], ttl);
   if (err != nil) {
      return errors.Wrapf(err, "Failed to ban %s.", args[0]);
   }

   fmt.Fprintf(adminShell.out, "Banned %s\n", args[0]);
   return nil;
}

func getBan(adminShell *shell, args []string) error {
   entry, err := adminShell.client.GetBan(adminShell.ctx, args[0]);
   if (err != nil) {
      return errors.Wrapf(err, "Failed to get ban for %s.", args[0]);
   }

   fmt.Fprintf(adminShell.out, "%s\t%d\n", entry.IP, entry.TTLSeconds);
   return nil;
}

func unban(adminShell *shell, args []string) error {
   err := adminShell.client.Unban(adminShell.ctx, args[0]);
   if (err != nil) {
      return errors.Wrapf(err, "Failed to unban %s.", args[0]);
   }

   fmt.Fprintf(adminShell.out, "Unbanned %s\n", args[0]);
   return nil;
}

func saveConfig(adminShell *shell, args []string) error {
   err := wafadmin.SaveConfig(adminShell.configPath, adminShell.client.Config());
   if (err != nil) {
      return errors.WithStack(err);
   }

   fmt.Fprintf(adminShell.out, "Saved config to %s\n", adminShell.configPath);
   return nil;
}

func help(adminShell *shell, args []string) error {
   fmt.Fprint(adminShell.out, helpText(commands));
   fmt.Fprintf(adminShell.out, "   %s\n", COMMAND_QUIT);
   return nil;
}

// Returns: (cursor, count). A zero count means the configured page size.
func pageArgs(args []string) (int, int, error) {
   var cursor int = 0;
   var count int = 0;
   var err error = nil;

   if (len(args) >= 1) {
      cursor, err = util.ParseNonNegativeInt(args[0], "cursor");
      if (err != nil) {
         return 0, 0, errors.WithStack(err);
      }
   }

   if (len(args) >= 2) {
      count, err = util.ParseNonNegativeInt(args[1], "count");
      if (err != nil) {
         return 0, 0, errors.WithStack(err);
      }
   }

   return cursor, count, nil;
}

// Args are (username, [password]). Prompts when the password is missing.
func credentialArgs(adminShell *shell, args []string) (canary.Credential, error) {
   if (len(args) >= 2) {
      return canary.Credential{Username: args[0], Password: args[1]}, nil;
   }

   password, err := adminShell.readPassword(fmt.Sprintf("Password for %s: ", args[0]));
   if (err != nil) {
      return canary.Credential{}, errors.WithStack(err);
   }

   return canary.Credential{Username: args[0], Password: password}, nil;
}

func printNextCursor(adminShell *shell, hasNext bool, cursor int) {
   if (hasNext) {
      fmt.Fprintf(adminShell.out, "Next cursor: %d\n", cursor);
   } else {
      fmt.Fprintln(adminShell.out, "(last page)");
   }
}
