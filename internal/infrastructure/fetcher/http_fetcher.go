package fetcher

import (
	"context"
	"time"

	"roster-service/internal/domain/errs"
	"roster-service/pkg/logger"
	"roster-service/pkg/utils"

	"github.com/go-resty/resty/v2"
)

// HTTPFetcher downloads roster payloads from remote sources.
// Retries are left to the task queue so every attempt gets its own fetch log.
type HTTPFetcher struct {
	httpClient *resty.Client
	logger     logger.Logger
}

// NewHTTPFetcher creates a fetcher whose requests give up after timeout
func NewHTTPFetcher(timeout time.Duration, logger logger.Logger) *HTTPFetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "text/csv, text/html, application/pdf, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, */*").
		SetHeader("User-Agent", "roster-service/1.0")

	return &HTTPFetcher{
		httpClient: client,
		logger:     logger,
	}
}

// Fetch returns the body of rawURL. Network failures and non-2xx responses are TransportErrors.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := utils.ValidateSourceURL(rawURL); err != nil {
		return nil, err
	}

	f.logger.Debug("Fetching source", "url", rawURL)

	resp, err := f.httpClient.R().
		SetContext(ctx).
		Get(rawURL)
	if err != nil {
		f.logger.Warn("Source request failed", "url", rawURL, "error", err)
		return nil, &errs.TransportError{URL: rawURL, Err: err}
	}

	if resp.IsError() || resp.StatusCode() >= 300 {
		f.logger.Warn("Source returned unexpected status", "url", rawURL, "status", resp.StatusCode())
		return nil, &errs.TransportError{URL: rawURL, StatusCode: resp.StatusCode()}
	}

	body := resp.Body()
	f.logger.Info("Source fetched", "url", rawURL, "bytes", len(body), "elapsed", resp.Time())
	return body, nil
}
