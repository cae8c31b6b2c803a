package collector

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/iobis/edna-sample-app/internal/client/client"
	"github.com/iobis/edna-sample-app/internal/client/models"
	"github.com/iobis/edna-sample-app/internal/logging"
	"github.com/iobis/edna-sample-app/internal/metrics"
)

const (
	// DefaultMaxImageSize is the largest photo accepted before answering 413.
	DefaultMaxImageSize = 10 << 20

	maxSamplesBody = 8 << 20

	RouteSamples = "/samples"
	RouteImages  = "/images"
	RouteHealth  = "/"
)

// Submission is one accepted sample.
type Submission struct {
	Sample     models.RemoteSample
	ReceivedAt time.Time
}

// Upload is one accepted photo.
type Upload struct {
	SampleID      string
	SubmissionKey string
	Filename      string
	ContentType   string
	Data          []byte
	ReceivedAt    time.Time
}

// RejectFunc decides whether a request to route fails. A non-zero status
// is sent back instead of processing the request.
type RejectFunc func(route string, r *http.Request) int

type Server struct {
	mu      sync.Mutex
	samples []Submission
	uploads []Upload

	log          logging.Logger
	metrics      *metrics.EndpointMetrics
	maxImageSize int64
	reject       RejectFunc
	now          func() time.Time
}

type Option func(*Server)

func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.log = l }
}

func WithMetrics(m *metrics.EndpointMetrics) Option {
	return func(s *Server) { s.metrics = m }
}

func WithMaxImageSize(n int64) Option {
	return func(s *Server) { s.maxImageSize = n }
}

// WithReject installs a failure injection hook.
func WithReject(fn RejectFunc) Option {
	return func(s *Server) { s.reject = fn }
}

func New(opts ...Option) *Server {
	s := &Server{
		log:          logging.Nop(),
		maxImageSize: DefaultMaxImageSize,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "collector")
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+RouteSamples, s.handleSamples)
	mux.HandleFunc("POST "+RouteImages, s.handleImages)
	mux.HandleFunc("GET /{$}", s.handleHealth)
	return mux
}

// Samples returns a copy of every accepted sample in arrival order.
func (s *Server) Samples() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Submission(nil), s.samples...)
}

// Uploads returns a copy of every accepted photo in arrival order.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = nil
	s.uploads = nil
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   int    `json:"count,omitempty"`
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	if s.rejected(w, r, RouteSamples) {
		return
	}

	var req client.SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSamplesBody)).Decode(&req); err != nil {
		s.fail(w, r, RouteSamples, statusForBodyError(err), fmt.Sprintf("invalid request body: %v", err))
		return
	}
	for i, smp := range req.Samples {
		if msg := checkSample(smp); msg != "" {
			s.fail(w, r, RouteSamples, http.StatusUnprocessableEntity, fmt.Sprintf("sample %d: %s", i, msg))
			return
		}
	}

	now := s.now()
	s.mu.Lock()
	for _, smp := range req.Samples {
		s.samples = append(s.samples, Submission{Sample: smp, ReceivedAt: now})
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.AddReceived(metrics.KindSample, len(req.Samples))
	}
	s.log.Info(r.Context(), "samples received", "count", len(req.Samples))
	s.reply(w, RouteSamples, http.StatusOK, response{Success: true, Count: len(req.Samples)})
}

func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	if s.rejected(w, r, RouteImages) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxImageSize+1<<20)
	if err := r.ParseMultipartForm(s.maxImageSize); err != nil {
		s.fail(w, r, RouteImages, statusForBodyError(err), fmt.Sprintf("invalid form: %v", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	sampleID := r.FormValue(client.FieldSampleID)
	if sampleID == "" {
		s.fail(w, r, RouteImages, http.StatusBadRequest, client.FieldSampleID+" is required")
		return
	}
	f, hdr, err := r.FormFile(client.FieldImage)
	if err != nil {
		s.fail(w, r, RouteImages, http.StatusBadRequest, client.FieldImage+" is required")
		return
	}
	defer f.Close()
	if hdr.Size > s.maxImageSize {
		s.fail(w, r, RouteImages, http.StatusRequestEntityTooLarge, "image too large")
		return
	}
	data, err := io.ReadAll(f)
	if err != nil {
		s.fail(w, r, RouteImages, http.StatusBadRequest, fmt.Sprintf("reading image: %v", err))
		return
	}

	up := Upload{
		SampleID:      sampleID,
		SubmissionKey: r.FormValue(client.FieldSubmissionKey),
		Filename:      hdr.Filename,
		ContentType:   hdr.Header.Get("Content-Type"),
		Data:          data,
		ReceivedAt:    s.now(),
	}
	s.mu.Lock()
	s.uploads = append(s.uploads, up)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.AddReceived(metrics.KindImage, 1)
	}
	s.log.Info(r.Context(), "image received", "sample_id", sampleID, "filename", up.Filename, "size", len(data))
	s.reply(w, RouteImages, http.StatusOK, response{Success: true, Count: 1})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.reply(w, RouteHealth, http.StatusOK, response{Success: true})
}

func (s *Server) rejected(w http.ResponseWriter, r *http.Request, route string) bool {
	if s.reject == nil {
		return false
	}
	code := s.reject(route, r)
	if code == 0 {
		return false
	}
	s.fail(w, r, route, code, http.StatusText(code))
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, route string, code int, msg string) {
	s.log.Warn(r.Context(), "request rejected", "route", route, "status", code, "message", msg)
	s.reply(w, route, code, response{Message: msg})
}

func (s *Server) reply(w http.ResponseWriter, route string, code int, body response) {
	if s.metrics != nil {
		s.metrics.IncRequest(route, strconv.Itoa(code))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func statusForBodyError(err error) int {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func checkSample(smp models.RemoteSample) string {
	switch {
	case smp.SampleID == "":
		return "sample_id is required"
	case smp.ContactEmail == "":
		return "contact_email is required"
	case smp.DateTime == "":
		return "date_time is required"
	}
	if _, err := time.Parse(time.RFC3339Nano, smp.DateTime); err != nil {
		return "date_time must be RFC 3339"
	}
	return ""
}
