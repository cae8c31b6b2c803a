package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iobis/edna-sample-app/internal/client/models"
	"github.com/iobis/edna-sample-app/internal/netx"
)

// DefaultTimeout bounds a single request when no other timeout is given.
const DefaultTimeout = 30 * time.Second

const maxErrorBody = 512

// HTTPClient talks to the collection endpoint over HTTP.
type HTTPClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewHTTPClient creates a client for baseURL. A non-positive timeout means
// DefaultTimeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) SubmitSamples(ctx context.Context, samples []models.RemoteSample) (*SubmitResponse, error) {
	data, err := json.Marshal(SubmitRequest{Samples: samples})
	if err != nil {
		return nil, fmt.Errorf("marshal samples: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/samples", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		// a 2xx without a readable body does not confirm the batch
		return &SubmitResponse{}, nil
	}
	return &out, nil
}

func (c *HTTPClient) UploadImage(ctx context.Context, img ImageUpload) error {
	fields := []netx.Field{{Name: FieldSampleID, Value: img.SampleID}}
	if img.SubmissionKey != "" {
		fields = append(fields, netx.Field{Name: FieldSubmissionKey, Value: img.SubmissionKey})
	}

	body, contentType, err := netx.MultipartBody(netx.FilePart{
		FieldName:   FieldImage,
		Filename:    img.Filename,
		ContentType: img.MimeType,
		Data:        img.Data,
	}, fields...)
	if err != nil {
		return fmt.Errorf("encode image form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/images", body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Ping treats any HTTP answer as reachable; only transport failures count.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.BaseURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return resp.Body.Close()
}

// do sends req and turns transport failures and non-2xx answers into
// errors. On success the caller owns resp.Body.
func (c *HTTPClient) do(req *http.Request) (*http.Response, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if !netx.IsSuccess(resp.StatusCode) {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RemoteError{
			StatusCode: resp.StatusCode,
			Reason:     netx.Reason(resp),
			Body:       string(b),
		}
	}
	return resp, nil
}
