package analyzer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/charlesng35/resumex/pkg/metrics"
)

const (
	// DefaultTimeout bounds a single webhook round trip.
	DefaultTimeout = 90 * time.Second
	// maxResponseBytes is the largest webhook response accepted.
	maxResponseBytes = 4 << 20
)

var (
	// ErrNotConfigured is returned when no webhook URL is set.
	ErrNotConfigured = errors.New("analyzer: webhook url not configured")
	// ErrUpstream wraps transport failures and non-2xx webhook responses.
	ErrUpstream = errors.New("analyzer: upstream failure")
)

// Config configures the webhook client.
type Config struct {
	WebhookURL string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Request is a resume and the job description it is evaluated against.
type Request struct {
	FileName       string
	Resume         []byte
	JobDescription string
}

// Client forwards analysis requests to the external webhook.
type Client struct {
	url     string
	timeout time.Duration
	http    *http.Client
}

// NewClient constructs a Client. An empty URL yields a client whose calls fail with ErrNotConfigured.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		url:     strings.TrimSpace(cfg.WebhookURL),
		timeout: timeout,
		http:    httpClient,
	}
}

// Configured reports whether a webhook URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.url != ""
}

// Analyze posts the resume as multipart form data (fields "resume" and
// "jobDescription") and parses the response with ParseReport.
func (c *Client) Analyze(ctx context.Context, req Request) (Report, error) {
	if !c.Configured() {
		return Report{}, ErrNotConfigured
	}

	body, contentType, err := encodeForm(req)
	if err != nil {
		return Report{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return Report{}, fmt.Errorf("analyzer: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json, text/plain;q=0.9, */*;q=0.8")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	metrics.AnalyzerLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AnalyzerRequests.WithLabelValues("error").Inc()
		return Report{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		metrics.AnalyzerRequests.WithLabelValues("error").Inc()
		return Report{}, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}
	if len(payload) > maxResponseBytes {
		metrics.AnalyzerRequests.WithLabelValues("error").Inc()
		return Report{}, fmt.Errorf("%w: response exceeds %d bytes", ErrUpstream, maxResponseBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.AnalyzerRequests.WithLabelValues("error").Inc()
		return Report{}, fmt.Errorf("%w: server error %d", ErrUpstream, resp.StatusCode)
	}

	report := ParseReport(payload)
	if report.Empty() {
		metrics.AnalyzerRequests.WithLabelValues("empty").Inc()
	} else {
		metrics.AnalyzerRequests.WithLabelValues("ok").Inc()
	}
	return report, nil
}

func encodeForm(req Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	name := req.FileName
	if name == "" {
		name = "resume.pdf"
	}
	part, err := writer.CreateFormFile("resume", name)
	if err != nil {
		return nil, "", fmt.Errorf("analyzer: create form file: %w", err)
	}
	if _, err := part.Write(req.Resume); err != nil {
		return nil, "", fmt.Errorf("analyzer: write form file: %w", err)
	}
	if err := writer.WriteField("jobDescription", req.JobDescription); err != nil {
		return nil, "", fmt.Errorf("analyzer: write job description: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("analyzer: close form: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
