package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iobis/edna-sample-app/internal/client/client"
	"github.com/iobis/edna-sample-app/internal/client/models"
	"github.com/iobis/edna-sample-app/internal/metrics"
	"github.com/iobis/edna-sample-app/internal/netx"
)

func setup(t *testing.T, opts ...Option) (*Server, *client.HTTPClient) {
	t.Helper()
	srv := New(opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, client.NewHTTPClient(ts.URL, 5*time.Second)
}

func remoteSample(id string) models.RemoteSample {
	return models.Sample{
		SampleID:     id,
		ContactName:  "Field Team",
		ContactEmail: "team@example.org",
		DateTime:     time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC),
		Latitude:     43.29568,
		Longitude:    5.36978,
	}.Remote()
}

func TestSubmitSamples(t *testing.T) {
	srv, c := setup(t)

	resp, err := c.SubmitSamples(context.Background(), []models.RemoteSample{remoteSample("KIT-1"), remoteSample("KIT-2")})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Count)

	got := srv.Samples()
	require.Len(t, got, 2)
	assert.Equal(t, "KIT-1", got[0].Sample.SampleID)
	assert.Equal(t, "2024-07-01T08:00:00Z", got[0].Sample.DateTime)
	assert.Nil(t, got[0].Sample.Remarks)
}

func TestSubmitSamples_Invalid(t *testing.T) {
	srv, c := setup(t)

	bad := remoteSample("KIT-1")
	bad.DateTime = "yesterday"
	_, err := c.SubmitSamples(context.Background(), []models.RemoteSample{remoteSample("KIT-0"), bad})

	var re *client.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusUnprocessableEntity, re.StatusCode)
	assert.Contains(t, re.Body, "sample 1: date_time must be RFC 3339")
	assert.Empty(t, srv.Samples(), "a rejected batch stores nothing")
}

func TestSubmitSamples_BadJSON(t *testing.T) {
	srv := New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+RouteSamples, "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadImage(t *testing.T) {
	srv, c := setup(t)

	err := c.UploadImage(context.Background(), client.ImageUpload{
		SampleID:      "KIT-1",
		SubmissionKey: "key-1",
		Filename:      "kit.jpg",
		MimeType:      "image/jpeg",
		Data:          []byte{0xff, 0xd8, 0xff},
	})
	require.NoError(t, err)

	got := srv.Uploads()
	require.Len(t, got, 1)
	assert.Equal(t, "KIT-1", got[0].SampleID)
	assert.Equal(t, "key-1", got[0].SubmissionKey)
	assert.Equal(t, "kit.jpg", got[0].Filename)
	assert.Equal(t, "image/jpeg", got[0].ContentType)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, got[0].Data)
}

func TestUploadImage_MissingSampleID(t *testing.T) {
	srv := New()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body, ct, err := netx.MultipartBody(netx.FilePart{FieldName: client.FieldImage, Filename: "a.png", Data: []byte("x")})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+RouteImages, ct, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, srv.Uploads())
}

func TestUploadImage_TooLarge(t *testing.T) {
	_, c := setup(t, WithMaxImageSize(4))

	err := c.UploadImage(context.Background(), client.ImageUpload{
		SampleID: "KIT-1",
		Filename: "big.jpg",
		MimeType: "image/jpeg",
		Data:     []byte("0123456789"),
	})
	var re *client.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusRequestEntityTooLarge, re.StatusCode)
}

func TestReject(t *testing.T) {
	_, c := setup(t, WithReject(func(route string, _ *http.Request) int {
		if route == RouteSamples {
			return http.StatusServiceUnavailable
		}
		return 0
	}))

	_, err := c.SubmitSamples(context.Background(), []models.RemoteSample{remoteSample("KIT-1")})
	var re *client.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusServiceUnavailable, re.StatusCode)
	assert.Equal(t, "Service Unavailable", re.Reason)

	require.NoError(t, c.UploadImage(context.Background(), client.ImageUpload{
		SampleID: "KIT-1", Filename: "a.jpg", MimeType: "image/jpeg", Data: []byte{1},
	}))
}

func TestHealthAndPing(t *testing.T) {
	_, c := setup(t)
	require.NoError(t, c.Ping(context.Background()))

	resp, err := c.HTTP.Get(c.BaseURL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsAndReset(t *testing.T) {
	m := metrics.NewEndpointMetrics()
	srv, c := setup(t, WithMetrics(m))

	_, err := c.SubmitSamples(context.Background(), []models.RemoteSample{remoteSample("KIT-1")})
	require.NoError(t, err)
	require.Len(t, srv.Samples(), 1)

	srv.Reset()
	assert.Empty(t, srv.Samples())
	assert.Empty(t, srv.Uploads())
}

func TestStatusForBodyError(t *testing.T) {
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusForBodyError(&http.MaxBytesError{Limit: 1}))
	assert.Equal(t, http.StatusBadRequest, statusForBodyError(errors.New("boom")))
}
