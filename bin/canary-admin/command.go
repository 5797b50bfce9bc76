package main;

import (
   "fmt"
   "sort"
   "strings"
)

// Params: (shell, args (not including the command name)).
type commandFunction func(*shell, []string) error;

type commandArg struct {
   Description string
   Optional bool
}

type commandInfo struct {
   Name string
   Summary string
   Function commandFunction
   Args []commandArg
   Variatic bool
}

// Optional args must come after required ones.
func (this commandInfo) ValidateArgs(args []string) bool {
   var required int = 0;
   for _, arg := range(this.Args) {
      if (!arg.Optional) {
         required++;
      }
   }

   if (len(args) < required) {
      return false;
   }

   return this.Variatic || len(args) <= len(this.Args);
}

func (this commandInfo) Usage() string {
   var parts []string = []string{this.Name};

   for _, arg := range(this.Args) {
      if (arg.Optional) {
         parts = append(parts, "[" + arg.Description + "]");
      } else {
         parts = append(parts, "<" + arg.Description + ">");
      }
   }

   if (this.Variatic) {
      parts = append(parts, "...");
   }

   return strings.Join(parts, " ");
}

// All commands, sorted by name, one per line.
func helpText(commands map[string]commandInfo) string {
   var names []string = make([]string, 0, len(commands));
   var width int = 0;

   for name, info := range(commands) {
      names = append(names, name);

      if (len(info.Usage()) > width) {
         width = len(info.Usage());
      }
   }

   sort.Strings(names);

   var builder strings.Builder;
   builder.WriteString("Commands:\n");
   for _, name := range(names) {
      fmt.Fprintf(&builder, "   %-*s   %s\n", width, commands[name].Usage(), commands[name].Summary);
   }

   return builder.String();
}
