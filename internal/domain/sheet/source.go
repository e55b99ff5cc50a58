package sheet

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
)

// DefaultExportURL is the CSV export endpoint of a published Google Sheet.
const DefaultExportURL = "https://docs.google.com/spreadsheets/d/%s/export?format=csv"

// Source yields the raw records of a product sheet.
type Source interface {
	Fetch(ctx context.Context, sheetID string) ([][]string, error)
}

var (
	_ Source = (*HTTPSource)(nil)
	_ Source = (*FileSource)(nil)
)

// HTTPSource downloads the CSV export of a published sheet.
type HTTPSource struct {
	Client *http.Client
	// ExportURL is a format string taking the sheet id.
	ExportURL string
}

// NewHTTPSource returns an HTTPSource. Empty arguments select defaults.
func NewHTTPSource(client *http.Client, exportURL string) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	if exportURL == "" {
		exportURL = DefaultExportURL
	}
	return &HTTPSource{Client: client, ExportURL: exportURL}
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context, sheetID string) ([][]string, error) {
	if sheetID == "" {
		return nil, errors.New("sheet id is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(s.ExportURL, sheetID), http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "text/csv")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "download sheet")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("sheet export returned status %d, is the sheet shared publicly?", resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := pgzip.NewReader(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, "create gzip reader")
		}
		defer func() { _ = gz.Close() }()
		body = gz
	}
	return readCSV(body)
}

// FileSource reads a local .csv or .csv.gz file. The sheet id is ignored.
type FileSource struct {
	Path string
}

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context, _ string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", s.Path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(s.Path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", s.Path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}
	return readCSV(r)
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parse csv")
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}
