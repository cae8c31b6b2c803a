package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iobis/edna-sample-app/internal/client/models"
	"github.com/iobis/edna-sample-app/internal/client/orchestrator"
	"github.com/iobis/edna-sample-app/internal/filex"
)

func (c *command) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session with background syncing",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, a *App, _ []string) error {
			return a.Shell(ctx)
		}),
	}
}

// shell is an interactive session. Syncing runs in the background while
// the user types.
type shell struct {
	app  *App
	orch *orchestrator.Orchestrator
}

func (a *App) Shell(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sh := &shell{app: a, orch: a.newOrchestrator(nil)}
	g, gctx := errgroup.WithContext(ctx)
	if a.probe != nil {
		g.Go(func() error {
			a.probe.Run(gctx)
			return nil
		})
	}
	g.Go(func() error { return sh.orch.Run(gctx) })

	a.println("eDNA sample shell (type 'help' for commands)")
	runREPL(ctx, sh, sh.status, a.in, a.io.Out)

	cancel()
	return g.Wait()
}

func (s *shell) status() string {
	st := s.orch.Stats()
	out := fmt.Sprintf("(%s, %d queued", s.app.mode(), st.Samples.Queued)
	if s.orch.State() == orchestrator.Syncing {
		out += ", syncing"
	}
	return out + ")"
}

func (s *shell) Submit(ctx context.Context) error {
	a := s.app
	form, err := promptForm(a.in, a.io.Out, time.Now())
	if err != nil {
		return err
	}

	var photo *models.Photo
	path, err := GetSimpleText(a.in, "Photo file (empty for none)", a.io.Out)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if path != "" {
		p, err := filex.ReadPhoto(path)
		if err != nil {
			return err
		}
		photo = &p
	}

	smp, err := a.samples.Create(ctx, form, photo)
	if err != nil {
		return err
	}
	a.printf("Queued sample %s (%s)\n", smp.SampleID, smp.ID)
	s.orch.Poke()
	return nil
}

func (s *shell) List(ctx context.Context) error { return s.app.List(ctx) }

func (s *shell) Show(ctx context.Context, id string) error { return s.app.Show(ctx, id) }

func (s *shell) Delete(ctx context.Context, id string) error {
	if err := s.app.Delete(ctx, id); err != nil {
		return err
	}
	s.orch.Poke()
	return nil
}

func (s *shell) Status(ctx context.Context) error {
	rep := StatusReport{Online: s.app.monitor.IsOnline(), Stats: s.orch.Stats()}
	at, msg, err := s.app.history.Last(ctx)
	if err != nil {
		return err
	}
	if !at.IsZero() {
		rep.LastSyncAt = &at
	}
	rep.LastError = msg
	s.app.printStatus(rep)
	return nil
}

func (s *shell) Sync(ctx context.Context) error {
	res, err := s.orch.SyncNow(ctx)
	switch {
	case errors.Is(err, orchestrator.ErrOffline):
		s.app.println(msgOffline)
		return nil
	case errors.Is(err, orchestrator.ErrSyncInProgress):
		s.app.println(msgSyncRunning)
		return nil
	case err != nil:
		return err
	}
	if !res.Samples.Failed() && !res.Images.Failed() && res.Samples.Synced == 0 && res.Images.Synced == 0 {
		s.app.println("Nothing to sync")
	}
	return nil
}

// promptForm asks for every field of a sample. Validation is left to the
// sample service so all problems are reported together.
func promptForm(in *bufio.Reader, w io.Writer, now time.Time) (models.SampleForm, error) {
	var (
		f   models.SampleForm
		err error
	)
	text := func(dst *string, prompt string) {
		if err == nil {
			*dst, err = GetSimpleText(in, prompt, w)
		}
	}
	number := func(dst **float64, prompt string) {
		if err == nil {
			*dst, err = GetFloat(in, prompt, w)
		}
	}

	text(&f.SampleID, "Sample ID (printed on the kit)")
	text(&f.ContactName, "Contact name")
	text(&f.ContactEmail, "Contact email")
	if err == nil {
		f.DateTime, err = GetDateTime(in, "Date and time (empty for now)", w, now)
	}
	number(&f.VolumeFiltered, "Volume filtered (ml)")
	number(&f.WaterTemperature, "Water temperature (°C, optional)")
	if err == nil {
		f.Replicate, err = GetInt(in, "Replicate (optional)", w)
	}
	text(&f.Site, "Site (optional)")
	text(&f.Locality, "Locality (optional)")
	number(&f.Latitude, "Latitude")
	number(&f.Longitude, "Longitude")
	number(&f.CoordinateUncertainty, "Coordinate uncertainty (m)")
	if err == nil {
		f.Remarks, err = GetMultiline(in, "Remarks (optional)", w)
	}
	if err == nil {
		f.EnvironmentRemarks, err = GetMultiline(in, "Environment remarks (optional)", w)
	}
	return f, err
}
