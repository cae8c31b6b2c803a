package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func (c *command) clearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every sample, photo and sync record from this device",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Clear(ctx, yes)
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// Clear wipes the local store. Without confirmed it asks first.
func (a *App) Clear(ctx context.Context, confirmed bool) error {
	if !confirmed {
		st, err := a.stats.Stats(ctx)
		if err != nil {
			return err
		}
		prompt := "Delete all local data?"
		if st.Samples.Queued > 0 {
			prompt = "Some samples were never synced and will be lost. Delete all local data?"
		}
		ok, err := Confirm(a.in, prompt, a.io.Out)
		if err != nil {
			return err
		}
		if !ok {
			a.println("Aborted")
			return nil
		}
	}

	if err := a.store.Reset(ctx); err != nil {
		return err
	}
	a.log.Info(ctx, "local store cleared")
	a.println("Local data cleared")
	return nil
}
