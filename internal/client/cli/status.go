package cli

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/iobis/edna-sample-app/internal/client/models"
)

// StatusReport is what `edna status` prints.
type StatusReport struct {
	Online     bool         `json:"online"`
	Stats      models.Stats `json:"stats"`
	LastSyncAt *time.Time   `json:"last_sync_at"`
	LastError  string       `json:"last_error,omitempty"`
}

func (c *command) statusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show connectivity, queue counts and the last sync",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, a *App, _ []string) error {
			rep, err := a.Status(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(a.io.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			a.printStatus(rep)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func (a *App) Status(ctx context.Context) (StatusReport, error) {
	rep := StatusReport{Online: a.checkOnline(ctx)}

	var err error
	if rep.Stats, err = a.stats.Stats(ctx); err != nil {
		return rep, err
	}
	at, msg, err := a.history.Last(ctx)
	if err != nil {
		return rep, err
	}
	if !at.IsZero() {
		rep.LastSyncAt = &at
	}
	rep.LastError = msg
	return rep, nil
}

func (a *App) printStatus(rep StatusReport) {
	mode := ModeOffline
	if rep.Online {
		mode = ModeOnline
	}
	a.printf("Connection: %s (%s)\n", mode, a.cfg.APIBaseURL)
	a.printf("Samples:    %d synced, %d queued\n", rep.Stats.Samples.Synced, rep.Stats.Samples.Queued)
	a.printf("Images:     %d synced, %d queued\n", rep.Stats.Images.Synced, rep.Stats.Images.Queued)
	if rep.LastSyncAt != nil {
		a.printf("Last sync:  %s\n", humanize.Time(*rep.LastSyncAt))
	} else {
		a.println("Last sync:  never")
	}
	if rep.LastError != "" {
		a.printf("Last error: %s\n", rep.LastError)
	}
}
