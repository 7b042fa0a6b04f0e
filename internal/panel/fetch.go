package panel

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/wonny/termpremium/internal/contracts"
	"github.com/wonny/termpremium/pkg/httputil"
	"github.com/wonny/termpremium/pkg/logger"
)

// ErrNoDatasetURL is returned by Fetch when no download URL is configured
var ErrNoDatasetURL = errors.New("dataset url not configured")

// Fetcher downloads the raw country-year dataset and derives the cleaned panel
// ⭐ SSOT: 원천 데이터셋 다운로드는 여기서만
type Fetcher struct {
	client *httputil.Client
	url    string
	logger *logger.Logger
}

// NewFetcher creates a new dataset fetcher
func NewFetcher(client *httputil.Client, url string, log *logger.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		url:    url,
		logger: log,
	}
}

// Fetch downloads and parses the raw dataset
func (f *Fetcher) Fetch(ctx context.Context) ([]contracts.RawRecord, error) {
	if f.url == "" {
		return nil, ErrNoDatasetURL
	}

	var buf bytes.Buffer
	n, err := f.client.Download(ctx, f.url, &buf)
	if err != nil {
		return nil, err
	}

	raw, err := ReadRawCSV(&buf)
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}

	f.logger.WithFields(map[string]interface{}{
		"url":   f.url,
		"bytes": n,
		"rows":  len(raw),
	}).Info("Dataset downloaded")

	return raw, nil
}

// Refresh downloads the dataset, derives the panel and writes it to path
func (f *Fetcher) Refresh(ctx context.Context, path string) ([]contracts.PanelRecord, error) {
	raw, err := f.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	records, err := Derive(raw)
	if err != nil {
		return nil, fmt.Errorf("derive panel: %w", err)
	}

	if err := SaveCSV(path, records); err != nil {
		return nil, err
	}

	f.logger.WithFields(map[string]interface{}{
		"path":    path,
		"records": len(records),
	}).Info("Panel refreshed")

	return records, nil
}
