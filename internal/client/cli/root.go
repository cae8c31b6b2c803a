package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iobis/edna-sample-app/internal/buildinfo"
	"github.com/iobis/edna-sample-app/internal/client/config"
)

// errPassFailed makes the process exit non-zero after the notifier has
// already shown why.
var errPassFailed = errors.New("sync pass failed")

// command holds the state shared by the command tree of one invocation.
type command struct {
	io       IO
	offline  bool
	jsonLogs bool
	app      *App
}

// Execute runs the edna command line with args and returns the process exit
// code.
func Execute(ctx context.Context, args []string, stdio IO) int {
	c := &command{io: stdio}
	root := c.rootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if c.app != nil {
		if cerr := c.app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		if !errors.Is(err, errPassFailed) {
			fmt.Fprintln(stdio.Err, "Error:", err)
		}
		return 1
	}
	return 0
}

func (c *command) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "edna",
		Short: "Record eDNA field samples offline and sync them to the collection endpoint",
		Long: `edna keeps sampling records and their photos in a local database and
pushes them to the eDNA collection endpoint whenever it can be reached.`,
		Version:       buildinfo.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(c.io.In)
	root.SetOut(c.io.Out)
	root.SetErr(c.io.Err)

	pf := root.PersistentFlags()
	config.RegisterFlags(pf)
	pf.BoolVar(&c.offline, "offline", false, "never contact the collection endpoint")
	pf.BoolVar(&c.jsonLogs, "json-logs", false, "write logs as JSON")

	root.AddCommand(
		c.submitCmd(),
		c.listCmd(),
		c.showCmd(),
		c.deleteCmd(),
		c.statusCmd(),
		c.syncCmd(),
		c.runCmd(),
		c.shellCmd(),
		c.clearCmd(),
	)
	return root
}

// open loads the configuration and builds the App on first use.
func (c *command) open(cmd *cobra.Command) (*App, error) {
	if c.app != nil {
		return c.app, nil
	}

	path, err := cmd.Flags().GetString(config.FlagConfig)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyFlags(cfg, cmd.Flags()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app, err := NewApp(cmd.Context(), cfg, AppOptions{
		Offline:  c.offline,
		JSONLogs: c.jsonLogs,
		IO:       c.io,
	})
	if err != nil {
		return nil, err
	}
	c.app = app
	return app, nil
}

// withApp adapts an App method to a cobra RunE.
func (c *command) withApp(fn func(ctx context.Context, a *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := c.open(cmd)
		if err != nil {
			return err
		}
		return fn(cmd.Context(), a, args)
	}
}
