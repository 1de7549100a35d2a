package pointcloud

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/banshee-data/pointview/internal/fsutil"
	"github.com/banshee-data/pointview/internal/httputil"
	"github.com/banshee-data/pointview/internal/monitoring"
)

// DefaultMaxBytes bounds the body read from any source.
const DefaultMaxBytes int64 = 64 << 20

// Loader fetches and parses a point source. A Loader performs one
// best-effort fetch per call: no retries.
type Loader struct {
	client httputil.HTTPClient
	fs     fsutil.FileSystem

	// MaxBytes bounds the body size; zero means DefaultMaxBytes.
	MaxBytes int64

	// Timeout bounds the fetch when positive. Zero waits as long as the
	// transport does.
	Timeout time.Duration

	logf func(format string, v ...interface{})
}

// NewLoader creates a Loader. A nil client uses http.DefaultClient and a nil
// filesystem uses the OS.
func NewLoader(client httputil.HTTPClient, fsys fsutil.FileSystem) *Loader {
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	return &Loader{
		client: client,
		fs:     fsys,
		logf:   monitoring.Prefixed("loader"),
	}
}

// Load fetches sourceURI and returns its points.
//
// sourceURI may be http://, https://, file:// or a bare filesystem path.
// Errors wrap ErrNetworkFailure or ErrEmptyDataset.
func (l *Loader) Load(ctx context.Context, sourceURI string) (PointSet, error) {
	points, _, err := l.LoadStats(ctx, sourceURI)
	return points, err
}

// LoadStats is Load that also returns the parse summary. Stats are
// populated whenever the body was fetched, including on ErrEmptyDataset.
func (l *Loader) LoadStats(ctx context.Context, sourceURI string) (PointSet, ParseStats, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	body, err := l.fetch(ctx, sourceURI)
	if err != nil {
		l.logf("failed to fetch %s: %v", sourceURI, err)
		return nil, ParseStats{}, err
	}

	reported := 0
	points, stats := Parse(string(body), func(ce *ConversionError) {
		reported++
		switch {
		case reported <= maxReportedConversions:
			l.logf("%v", ce)
		case reported == maxReportedConversions+1:
			l.logf("further conversion failures in %s suppressed", sourceURI)
		}
	})

	if len(points) == 0 {
		l.logf("no valid data points found in %s (%d lines)", sourceURI, stats.Lines)
		return nil, stats, fmt.Errorf("%s: %w", sourceURI, ErrEmptyDataset)
	}

	l.logf("loaded %d points from %s (%d lines, %d dropped, %d conversion failures)",
		stats.Kept, sourceURI, stats.Lines, stats.Dropped(), stats.ConversionFailures)
	return points, stats, nil
}

func (l *Loader) maxBytes() int64 {
	if l.MaxBytes > 0 {
		return l.MaxBytes
	}
	return DefaultMaxBytes
}

func (l *Loader) fetch(ctx context.Context, sourceURI string) ([]byte, error) {
	u, err := url.Parse(sourceURI)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %q: %v", ErrNetworkFailure, sourceURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return l.fetchHTTP(ctx, sourceURI)
	case "file":
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		return l.readFile(path)
	case "":
		return l.readFile(sourceURI)
	default:
		// A single letter is a Windows drive, not a scheme.
		if len(u.Scheme) == 1 {
			return l.readFile(sourceURI)
		}
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrNetworkFailure, u.Scheme)
	}
}

func (l *Loader) fetchHTTP(ctx context.Context, sourceURI string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURI, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrNetworkFailure, sourceURI, resp.StatusCode)
	}

	return l.readLimited(resp.Body)
}

func (l *Loader) readFile(path string) ([]byte, error) {
	f, err := l.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetworkFailure, err)
	}
	defer f.Close()
	return l.readLimited(f)
}

func (l *Loader) readLimited(r io.Reader) ([]byte, error) {
	limit := l.maxBytes()
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetworkFailure, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrNetworkFailure, limit)
	}
	return body, nil
}
