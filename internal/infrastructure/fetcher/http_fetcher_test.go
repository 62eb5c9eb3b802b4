package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"roster-service/internal/domain/errs"
	"roster-service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/roster.csv":
			w.Header().Set("Content-Type", "text/csv")
			w.Write([]byte("Doktor;Tarih\nDr. Ayşe Yılmaz;15.01.2024\n"))
		case "/moved":
			w.WriteHeader(http.StatusNotModified)
		default:
			http.Error(w, "gone", http.StatusServiceUnavailable)
		}
	}))
	defer server.Close()

	f := NewHTTPFetcher(5*time.Second, logger.NewNopLogger())

	body, err := f.Fetch(context.Background(), server.URL+"/roster.csv")
	require.NoError(t, err)
	assert.Contains(t, string(body), "Ayşe")

	_, err = f.Fetch(context.Background(), server.URL+"/missing")
	var te *errs.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
	assert.True(t, errs.IsTransient(err))

	_, err = f.Fetch(context.Background(), server.URL+"/moved")
	assert.True(t, errs.IsTransient(err))
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	f := NewHTTPFetcher(50*time.Millisecond, logger.NewNopLogger())
	_, err := f.Fetch(context.Background(), server.URL)
	assert.True(t, errs.IsTransient(err))
}

func TestHTTPFetcher_RejectsInvalidURL(t *testing.T) {
	f := NewHTTPFetcher(time.Second, logger.NewNopLogger())

	_, err := f.Fetch(context.Background(), "ftp://hastane.gov.tr/nobet.csv")
	var ve *errs.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.False(t, errs.IsTransient(err))
}
