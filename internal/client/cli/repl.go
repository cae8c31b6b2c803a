package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// shellExec is the command surface the REPL dispatches to. The shell
// session satisfies it; tests provide a lightweight stub.
type shellExec interface {
	Submit(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Status(ctx context.Context) error
	Sync(ctx context.Context) error
}

const shellHelp = `Available commands:
  submit        record a new sample
  (l)ist        list samples
  show <id>     show a sample
  delete <id>   delete a sample
  status        connectivity and queue counts
  sync          sync now
  exit          leave the shell`

// runREPL reads commands from in until EOF or "exit"/"quit" and dispatches
// them to sh. The prompt shows statusFn(). Errors returned by handlers are
// printed and the loop goes on.
func runREPL(ctx context.Context, sh shellExec, statusFn func() string, in *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "edna %s> ", statusFn())
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help", "?":
			fmt.Fprintln(w, shellHelp)
		case "submit", "add":
			cmdErr = sh.Submit(ctx)
		case "l", "list":
			cmdErr = sh.List(ctx)
		case "show", "delete":
			if len(args) != 1 {
				fmt.Fprintf(w, "Usage: %s <id>\n", cmd)
				continue
			}
			if cmd == "show" {
				cmdErr = sh.Show(ctx, args[0])
			} else {
				cmdErr = sh.Delete(ctx, args[0])
			}
		case "status":
			cmdErr = sh.Status(ctx)
		case "sync":
			cmdErr = sh.Sync(ctx)
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
		if cmdErr != nil {
			fmt.Fprintln(w, "Error:", cmdErr)
		}
		if ctx.Err() != nil {
			return
		}
	}
}
