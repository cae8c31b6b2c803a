package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/iobis/edna-sample-app/internal/common"
)

func (c *command) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"l", "ls"},
		Short:   "List stored samples, newest first",
		Args:    cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.List(ctx)
		}),
	}
}

func (c *command) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one sample and its photo",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(ctx context.Context, a *App, args []string) error {
			return a.Show(ctx, args[0])
		}),
	}
}

func (c *command) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a sample and its photo from the local store",
		Args:    cobra.ExactArgs(1),
		RunE: c.withApp(func(ctx context.Context, a *App, args []string) error {
			return a.Delete(ctx, args[0])
		}),
	}
}

func (a *App) List(ctx context.Context) error {
	list, err := a.samples.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.println("No samples yet")
		return nil
	}

	tw := tabwriter.NewWriter(a.io.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSAMPLE ID\tTAKEN\tSITE\tSTATUS\tSTORED")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.SampleID, s.DateTime.Local().Format("2006-01-02 15:04"),
			orDash(s.Site), syncState(s.Synced), humanize.Time(s.CreatedAt))
	}
	return tw.Flush()
}

func (a *App) Show(ctx context.Context, id string) error {
	s, img, err := a.samples.Get(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("sample %s not found", id)
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.io.Out, 0, 4, 2, ' ', 0)
	row := func(k, v string) { fmt.Fprintf(tw, "%s:\t%s\n", k, v) }
	row("ID", s.ID)
	row("Sample ID", s.SampleID)
	row("Status", syncState(s.Synced))
	row("Contact", fmt.Sprintf("%s <%s>", s.ContactName, s.ContactEmail))
	row("Taken", s.DateTime.Format(time.RFC3339))
	row("Volume filtered", optFloat(s.VolumeFiltered, "ml"))
	row("Water temperature", optFloat(s.WaterTemperature, "°C"))
	row("Replicate", optInt(s.Replicate))
	row("Site", orDash(s.Site))
	row("Locality", orDash(s.Locality))
	row("Coordinates", fmt.Sprintf("%.5f, %.5f (±%g m)", s.Latitude, s.Longitude, s.CoordinateUncertainty))
	row("Remarks", orDash(s.Remarks))
	row("Environment", orDash(s.EnvironmentRemarks))
	row("Stored", fmt.Sprintf("%s (%s)", s.CreatedAt.Format(time.RFC3339), humanize.Time(s.CreatedAt)))
	if img != nil {
		row("Photo", fmt.Sprintf("%s, %s, %s, %s", img.Filename, img.MimeType,
			humanize.Bytes(uint64(img.Size)), syncState(img.Synced)))
	} else {
		row("Photo", "-")
	}
	return tw.Flush()
}

func (a *App) Delete(ctx context.Context, id string) error {
	err := a.samples.Delete(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("sample %s not found", id)
	}
	if err != nil {
		return err
	}
	a.printf("Deleted sample %s\n", id)
	return nil
}

func syncState(synced bool) string {
	if synced {
		return "synced"
	}
	return "queued"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func optFloat(v *float64, unit string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g %s", *v, unit)
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}
