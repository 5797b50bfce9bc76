package main;

// An admin shell for the WAF: manage canary hashes and IP bans.
// With a command after the flags, runs just that command and exits.

import (
   "bufio"
   "context"
   "fmt"
   "io"
   "log/slog"
   "os"
   "os/signal"
   "strings"
   "syscall"
   "time"

   "github.com/pkg/errors"
   shellquote "github.com/kballard/go-shellquote"
   "github.com/spf13/pflag"
   "golang.org/x/term"

   "github.com/eriq-augustine/wafcanary/util"
   "github.com/eriq-augustine/wafcanary/wafadmin"
)

const (
   COMMAND_QUIT = "quit"
   PROMPT = "> "

   EXIT_OK = 0
   EXIT_BAD_ARGS = 1
   EXIT_BAD_CLIENT = 2
   EXIT_COMMAND_FAILED = 3
   EXIT_BAD_INPUT = 4
   EXIT_INTERRUPTED = 130

   // Room for a few tens of thousands of pasted hashes on one line.
   MAX_LINE_SIZE = 4 << 20
)

type shell struct {
   ctx context.Context
   client *wafadmin.Client
   configPath string
   out io.Writer
   logger *slog.Logger
   readPassword func(prompt string) (string, error)
}

type args struct {
   Config wafadmin.Config
   ConfigPath string
   Verbose bool
   Command []string
}

func main() {
   // SIGINT and SIGTERM cancel in-flight requests through the context.
   ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM);
   defer stop();

   // Capture the terminal before any password prompt turns echo off.
   var restore func() = func() {};
   var fd int = int(os.Stdin.Fd());
   if (term.IsTerminal(fd)) {
      state, err := term.GetState(fd);
      if (err == nil) {
         restore = func() {
            term.Restore(fd, state);
         };
      }
   }

   go exitOnInterrupt(ctx, restore, os.Stdout, os.Exit);

   os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr));
}

// A blocked prompt or stdin read never sees the cancelled context,
// so put the terminal back the way it was and leave.
func exitOnInterrupt(ctx context.Context, restore func(), out io.Writer, exit func(int)) {
   <-ctx.Done();

   restore();
   fmt.Fprintln(out, "");
   exit(EXIT_INTERRUPTED);
}

// Returns the exit code.
func run(ctx context.Context, rawArgs []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
   args, err := parseArgs(rawArgs, stderr);
   if (err != nil) {
      fmt.Fprintf(stderr, "Error parsing args: %+v\n", err);
      return EXIT_BAD_ARGS;
   }

   var level slog.Level = slog.LevelInfo;
   if (args.Verbose) {
      level = slog.LevelDebug;
   }

   var logger *slog.Logger = util.NewLogger(stderr, level);

   client, err := wafadmin.NewClient(args.Config, logger);
   if (err != nil) {
      fmt.Fprintf(stderr, "%+v\n", errors.Wrap(err, "Failed to build admin client"));
      return EXIT_BAD_CLIENT;
   }

   var adminShell *shell = &shell{
      ctx: ctx,
      client: client,
      configPath: args.ConfigPath,
      out: stdout,
      logger: logger,
      readPassword: terminalPassword(stderr),
   };

   if (len(args.Command) > 0) {
      err = adminShell.execute(args.Command);
      if (err != nil) {
         logger.Error("command failed", "command", args.Command[0], "error", err);
         fmt.Fprintf(stderr, "Failed to run command: %+v\n", err);
         return EXIT_COMMAND_FAILED;
      }

      return EXIT_OK;
   }

   err = adminShell.interact(stdin);
   if (err != nil) {
      logger.Error("failed to read input", "error", err);
      fmt.Fprintf(stderr, "%+v\n", err);
      return EXIT_BAD_INPUT;
   }

   return EXIT_OK;
}

func parseArgs(rawArgs []string, stderr io.Writer) (*args, error) {
   var flags *pflag.FlagSet = pflag.NewFlagSet("canary-admin", pflag.ContinueOnError);
   flags.SetOutput(stderr);
   flags.SetInterspersed(false);

   var apiBase *string = flags.StringP("api-base", "a", wafadmin.DEFAULT_API_BASE, "Base URL of the WAF admin API");
   var token *string = flags.StringP("token", "t", "", "Admin token (sent as X-Admin-Token)");
   var pageSize *int = flags.IntP("page-size", "s", wafadmin.DEFAULT_PAGE_SIZE, "Entries per page when listing");
   var configPath *string = flags.StringP("config", "c", wafadmin.DefaultConfigPath(), "Path to a JSON config file ({apiBase, token, pageSize})");
   var timeout *time.Duration = flags.Duration("timeout", wafadmin.DEFAULT_TIMEOUT, "Timeout for each admin request");
   var insecure *bool = flags.Bool("insecure", false, "Skip TLS certificate verification (self-signed WAF certs)");
   var verbose *bool = flags.BoolP("verbose", "v", false, "Log every admin request");

   err := flags.Parse(rawArgs);
   if (err != nil) {
      return nil, errors.WithStack(err);
   }

   config, err := wafadmin.LoadConfig(*configPath);
   if (err != nil) {
      return nil, errors.WithStack(err);
   }

   // Flags only win over the file when they were actually given.
   var override wafadmin.Config = wafadmin.Config{
      Timeout: *timeout,
      Insecure: *insecure,
   };

   if (flags.Changed("page-size")) {
      if (*pageSize <= 0) {
         return nil, errors.Errorf("Page size must be positive, got %d.", *pageSize);
      }

      override.PageSize = *pageSize;
   }

   config.Merge(override);

   // Merge() skips empty values, but an explicit empty flag should still clear the file's value.
   if (flags.Changed("api-base")) {
      config.ApiBase = *apiBase;
   }

   if (flags.Changed("token")) {
      config.Token = *token;
   }

   var rtn args = args{
      Config: config,
      ConfigPath: *configPath,
      Verbose: *verbose,
      Command: flags.Args(),
   };

   return &rtn, nil;
}

// Returns an error only when input could not be read.
func (this *shell) interact(stdin io.Reader) error {
   var scanner *bufio.Scanner = bufio.NewScanner(stdin);
   scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), MAX_LINE_SIZE);

   for {
      fmt.Fprint(this.out, PROMPT);

      if (!scanner.Scan()) {
         break;
      }

      var command string = strings.TrimSpace(scanner.Text());

      if (command == "") {
         continue;
      }

      if (command == COMMAND_QUIT) {
         break;
      }

      err := this.processCommand(command);
      if (err != nil) {
         fmt.Fprintln(this.out, "Failed to run command:");
         fmt.Fprintf(this.out, "%+v\n", err);
      }
   }
   fmt.Fprintln(this.out, "");

   err := scanner.Err();
   if (err != nil) {
      return errors.Wrapf(err, "Failed to read command (lines are limited to %d bytes).", MAX_LINE_SIZE);
   }

   return nil;
}

func (this *shell) processCommand(input string) error {
   args, err := shellquote.Split(input);
   if (err != nil) {
      return errors.Wrap(err, "Failed to split command.");
   }

   if (len(args) == 0) {
      return nil;
   }

   return this.execute(args);
}

// Run an already split command line.
func (this *shell) execute(args []string) error {
   var command string = args[0];
   args = args[1:];

   commandInfo, ok := commands[command];
   if (!ok) {
      return errors.Errorf("Unknown command: [%s]. Try 'help'.", command);
   }

   if (!commandInfo.ValidateArgs(args)) {
      return errors.Errorf("USAGE: %s", commandInfo.Usage());
   }

   err := commandInfo.Function(this, args);
   if (err != nil) {
      return errors.WithStack(err);
   }

   return nil;
}

// Prompts on stderr and reads from the controlling terminal without echo.
func terminalPassword(stderr io.Writer) func(string) (string, error) {
   return func(prompt string) (string, error) {
      var fd int = int(os.Stdin.Fd());
      if (!term.IsTerminal(fd)) {
         return "", errors.New("No terminal available for a password prompt, give the password as an argument.");
      }

      fmt.Fprint(stderr, prompt);
      password, err := term.ReadPassword(fd);
      fmt.Fprintln(stderr);
      if (err != nil) {
         return "", errors.Wrap(err, "Failed to read password.");
      }

      return string(password), nil;
   };
}
