package util;

import (
   "io"
   "log/slog"
   "os"

   "golang.org/x/term"
)

// Text logs for a person at a terminal, JSON for everything else (pipes, files, tests).
func NewLogger(out io.Writer, level slog.Leveler) *slog.Logger {
   file, ok := out.(*os.File);
   return newLogger(out, ok && term.IsTerminal(int(file.Fd())), level);
}

func newLogger(out io.Writer, human bool, level slog.Leveler) *slog.Logger {
   var options *slog.HandlerOptions = &slog.HandlerOptions{Level: level};

   if (human) {
      return slog.New(slog.NewTextHandler(out, options));
   }

   return slog.New(slog.NewJSONHandler(out, options));
}
