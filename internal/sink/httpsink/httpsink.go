// Package httpsink ships observation payloads to the ingestion service over
// HTTPS, retrying transient failures with an exponential backoff.
package httpsink

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ottertune/db-agent/internal/sink"
)

// endpoints maps each sink.Kind to its ingestion-service path.
var endpoints = map[sink.Kind]string{
	sink.KindDBLevel:          "/observation/",
	sink.KindTableLevel:       "/table_level_observation/",
	sink.KindLongRunningQuery: "/long_running_query_observation/",
	sink.KindQuery:            "/query_observation/",
	sink.KindSchema:           "/schema_observation/",
	sink.KindHealth:           "/agent_health/",
}

// timeouts maps each sink.Kind to its per-request timeout. Health carries
// no timeout of its own; it is given the same budget as the other small,
// uncompressed payloads (DB/table).
var timeouts = map[sink.Kind]time.Duration{
	sink.KindDBLevel:          30 * time.Second,
	sink.KindTableLevel:       30 * time.Second,
	sink.KindLongRunningQuery: 60 * time.Second,
	sink.KindQuery:            90 * time.Second,
	sink.KindSchema:           90 * time.Second,
	sink.KindHealth:           30 * time.Second,
}

// retryableStatus is the set of HTTP statuses worth retrying.
var retryableStatus = map[int]bool{
	http.StatusRequestTimeout:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

// Config names the values shared across every request made by a Sink.
type Config struct {
	ServerURL    string
	APIKey       string
	OrganizationID string
	AgentVersion string
}

// Sink is the HTTPS implementation of sink.Sink.
type Sink struct {
	cfg    Config
	client *http.Client
	log    logrus.FieldLogger
}

// New builds a Sink sharing one keep-alive http.Client across every kind
// and tick.
func New(cfg Config, log logrus.FieldLogger) *Sink {
	return &Sink{
		cfg:    cfg,
		client: &http.Client{},
		log:    log,
	}
}

// Ship POSTs body to the endpoint for kind, gzip-compressing it first when
// the kind requires it, retrying transient failures with exponential
// backoff bounded by the kind's timeout.
func (s *Sink) Ship(ctx context.Context, kind sink.Kind, body []byte) error {
	endpoint, ok := endpoints[kind]
	if !ok {
		return errors.Errorf("httpsink: unknown observation kind %q", kind)
	}

	payload := body
	gzipped := kind.Gzipped()
	if gzipped {
		compressed, err := gzipBytes(body)
		if err != nil {
			return errors.Wrap(err, "gzip payload")
		}
		payload = compressed
	}

	timeout := timeouts[kind]
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := s.cfg.ServerURL + endpoint

	bo := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)

	return backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(errors.Wrap(err, "build request"))
		}
		s.setHeaders(req, gzipped)

		resp, err := s.client.Do(req)
		if err != nil {
			// Network-level failures (DNS, connection reset, timeout) are
			// retried like retryable statuses; the dispatcher records
			// either kind of final failure as SinkRejected.
			return err
		}
		defer drain(resp.Body)

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		if retryableStatus[resp.StatusCode] {
			return errors.Errorf("httpsink: retryable status %d from %s", resp.StatusCode, url)
		}
		return backoff.Permanent(errors.Errorf("httpsink: non-retryable status %d from %s", resp.StatusCode, url))
	}, bo)
}

func (s *Sink) setHeaders(req *http.Request, gzipped bool) {
	req.Header.Set("ApiKey", s.cfg.APIKey)
	req.Header.Set("organization_id", s.cfg.OrganizationID)
	req.Header.Set("AgentVersion", s.cfg.AgentVersion)
	if gzipped {
		req.Header.Set("Content-Encoding", "gzip")
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	} else {
		req.Header.Set("Content-Type", "application/json")
	}
}

func gzipBytes(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

var _ sink.Sink = (*Sink)(nil)
