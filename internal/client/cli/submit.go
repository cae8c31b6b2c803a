package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iobis/edna-sample-app/internal/client/models"
	"github.com/iobis/edna-sample-app/internal/client/orchestrator"
	"github.com/iobis/edna-sample-app/internal/client/services"
	"github.com/iobis/edna-sample-app/internal/filex"
)

type submitFlags struct {
	sampleID, name, email, date        string
	remarks, envRemarks, site, locality string
	volume, temperature                float64
	lat, lon, uncertainty              float64
	replicate                          int
	gps                                bool
	photo                              string
	noSync                             bool
}

func (c *command) submitCmd() *cobra.Command {
	var f submitFlags
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Queue a new sample and sync it when online",
		Example: `  edna submit --sample-id KIT-0042 --name "Field Team" --email team@example.org \
    --volume 1000 --lat 43.29568 --lon 5.36978 --uncertainty 30 --photo kit.jpg`,
		Args: cobra.NoArgs,
	}
	fs := cmd.Flags()
	fs.StringVar(&f.sampleID, "sample-id", "", "identifier printed on the sampling kit")
	fs.StringVar(&f.name, "name", "", "contact name")
	fs.StringVar(&f.email, "email", "", "contact email")
	fs.StringVar(&f.date, "date", "", "when the sample was taken (RFC 3339 or \"2006-01-02 15:04\"), default now")
	fs.Float64Var(&f.volume, "volume", 0, "filtered volume in millilitres")
	fs.Float64Var(&f.temperature, "temperature", 0, "water temperature in degrees Celsius")
	fs.StringVar(&f.remarks, "remarks", "", "free-text remarks")
	fs.StringVar(&f.envRemarks, "env-remarks", "", "remarks about the environment")
	fs.IntVar(&f.replicate, "replicate", 0, "replicate number")
	fs.StringVar(&f.site, "site", "", "site name")
	fs.StringVar(&f.locality, "locality", "", "locality")
	fs.Float64Var(&f.lat, "lat", 0, "latitude in decimal degrees")
	fs.Float64Var(&f.lon, "lon", 0, "longitude in decimal degrees")
	fs.Float64Var(&f.uncertainty, "uncertainty", 0, "coordinate uncertainty in metres")
	fs.BoolVar(&f.gps, "gps", false, "coordinates come from a GPS fix; round them to 5 decimals")
	fs.StringVar(&f.photo, "photo", "", "path to a photo of the kit")
	fs.BoolVar(&f.noSync, "no-sync", false, "only queue the sample")

	cmd.RunE = c.withApp(func(ctx context.Context, a *App, _ []string) error {
		form, err := f.form(fs, time.Now())
		if err != nil {
			return err
		}
		var photo *models.Photo
		if f.photo != "" {
			p, err := filex.ReadPhoto(f.photo)
			if err != nil {
				return err
			}
			photo = &p
		}
		return a.Submit(ctx, form, photo, !f.noSync)
	})
	return cmd
}

// form builds the sample form. Numeric flags that were not given stay nil
// so validation can report them as missing.
func (f *submitFlags) form(fs *pflag.FlagSet, now time.Time) (models.SampleForm, error) {
	form := models.SampleForm{
		SampleID:           f.sampleID,
		ContactName:        f.name,
		ContactEmail:       f.email,
		DateTime:           now,
		Remarks:            f.remarks,
		EnvironmentRemarks: f.envRemarks,
		Site:               f.site,
		Locality:           f.locality,
	}
	if f.date != "" {
		t, err := ParseDateTime(f.date)
		if err != nil {
			return form, err
		}
		form.DateTime = t
	}

	float := func(name string, v float64) *float64 {
		if !fs.Changed(name) {
			return nil
		}
		return models.Float(v)
	}
	lat, lon := f.lat, f.lon
	if f.gps {
		lat, lon = services.RoundCoordinate(lat), services.RoundCoordinate(lon)
	}
	form.VolumeFiltered = float("volume", f.volume)
	form.WaterTemperature = float("temperature", f.temperature)
	form.Latitude = float("lat", lat)
	form.Longitude = float("lon", lon)
	form.CoordinateUncertainty = float("uncertainty", f.uncertainty)
	if fs.Changed("replicate") {
		form.Replicate = models.Int(f.replicate)
	}
	return form, nil
}

// Submit stores the sample and, when sync is true and the endpoint answers,
// runs one pass right away.
func (a *App) Submit(ctx context.Context, form models.SampleForm, photo *models.Photo, sync bool) error {
	smp, err := a.samples.Create(ctx, form, photo)
	if err != nil {
		var ve *services.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("sample not saved: %w", err)
		}
		return err
	}

	a.printf("Queued sample %s (%s)\n", smp.SampleID, smp.ID)
	if photo != nil && smp.ImageID == "" {
		a.println("Warning: the photo could not be stored, the sample was saved without it")
	}
	if !sync {
		return nil
	}
	if !a.checkOnline(ctx) {
		a.println("Offline: the sample stays queued until the next sync")
		return nil
	}
	_, err = a.newOrchestrator(nil).RunPass(ctx, orchestrator.TriggerQueueGrowth)
	if errors.Is(err, orchestrator.ErrSyncInProgress) {
		a.println(msgSyncRunning + ", the sample stays queued for now")
		return nil
	}
	return err
}
