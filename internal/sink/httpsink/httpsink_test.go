package httpsink

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ottertune/db-agent/internal/sink"
)

func TestShipSetsHeadersAndPath(t *testing.T) {
	var gotPath string
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeaders = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(Config{ServerURL: srv.URL, APIKey: "key", OrganizationID: "org", AgentVersion: "1.0.0"}, logrus.New())
	err := s.Ship(context.Background(), sink.KindDBLevel, []byte(`{"a":1}`))
	require.NoError(t, err)

	assert.Equal(t, "/observation/", gotPath)
	assert.Equal(t, "key", gotHeaders.Get("ApiKey"))
	assert.Equal(t, "org", gotHeaders.Get("organization_id"))
	assert.Equal(t, "1.0.0", gotHeaders.Get("AgentVersion"))
	assert.Empty(t, gotHeaders.Get("Content-Encoding"))
}

func TestShipGzipsCompressibleKinds(t *testing.T) {
	var gotEncoding string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEncoding = r.Header.Get("Content-Encoding")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(Config{ServerURL: srv.URL, APIKey: "key", OrganizationID: "org", AgentVersion: "1.0.0"}, logrus.New())
	err := s.Ship(context.Background(), sink.KindQuery, []byte(`{"a":1}`))
	require.NoError(t, err)

	assert.Equal(t, "gzip", gotEncoding)
	gz, err := gzip.NewReader(bytes.NewReader(gotBody))
	require.NoError(t, err)
	decompressed, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(decompressed))
}

func TestShipRetriesRetryableStatusThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(Config{ServerURL: srv.URL, APIKey: "key", OrganizationID: "org", AgentVersion: "1.0.0"}, logrus.New())
	err := s.Ship(context.Background(), sink.KindDBLevel, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestShipDoesNotRetryNonRetryableStatus(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	s := New(Config{ServerURL: srv.URL, APIKey: "key", OrganizationID: "org", AgentVersion: "1.0.0"}, logrus.New())
	err := s.Ship(context.Background(), sink.KindDBLevel, []byte(`{}`))
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
