package library

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ProgressFunc receives download progress as a percentage of the declared
// content length. It is not called when the length is unknown.
type ProgressFunc func(percent int)

// Fetcher downloads book archives and unzips them under a working directory.
type Fetcher struct {
	client        *http.Client
	dir           string
	concurrency   int
	progressEvery time.Duration
	logger        *log.Logger
}

// NewFetcher builds a Fetcher from the downloads configuration.
func NewFetcher(cfg DownloadsConfig, logger *log.Logger) (*Fetcher, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	every, err := cfg.ProgressEvery()
	if err != nil {
		return nil, err
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Fetcher{
		client:        &http.Client{Timeout: timeout},
		dir:           cfg.Dir,
		concurrency:   concurrency,
		progressEvery: every,
		logger:        orDiscard(logger),
	}, nil
}

// Fetch downloads rawURL into the working directory, extracts it into a sibling
// directory named after the archive without its extension, deletes the archive
// and returns the directory. A failed attempt leaves nothing to resume.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, progress ProgressFunc) (string, error) {
	name, err := archiveName(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownload, err)
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create download dir: %w", ErrDownload, err)
	}

	zipPath := filepath.Join(f.dir, name)
	start := time.Now()
	size, err := f.download(ctx, rawURL, zipPath, progress)
	if err != nil {
		os.Remove(zipPath)
		return "", err
	}
	f.logger.Info().Str("url", rawURL).Int64("bytes", size).Dur("took", time.Since(start)).Msg("archive downloaded")

	dest := filepath.Join(f.dir, strings.TrimSuffix(name, filepath.Ext(name)))
	if err := unzip(zipPath, dest); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrExtraction, name, err)
	}
	if err := os.Remove(zipPath); err != nil {
		f.logger.Warn().Err(err).Str("file", zipPath).Msg("failed to delete archive")
	}
	return dest, nil
}

// archiveName is the last path segment of the URL.
func archiveName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("url %q has no file name", rawURL)
	}
	return name, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL, dst string, progress ProgressFunc) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDownload, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("%w: %s returned %s", ErrDownload, rawURL, resp.Status)
	}

	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDownload, err)
	}

	pw := newProgressWriter(resp.ContentLength, progress, f.progressEvery)
	n, err := io.Copy(io.MultiWriter(out, pw), resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrDownload, err)
	}
	pw.finish()
	return n, nil
}

// progressWriter counts bytes and reports whole-percent changes, no more often
// than the configured interval.
type progressWriter struct {
	total   int64
	written int64
	last    int
	report  ProgressFunc
	limiter *rate.Sometimes
}

func newProgressWriter(total int64, report ProgressFunc, every time.Duration) *progressWriter {
	limiter := &rate.Sometimes{Every: 1}
	if every > 0 {
		limiter = &rate.Sometimes{First: 1, Interval: every}
	}
	return &progressWriter{total: total, last: -1, report: report, limiter: limiter}
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.report == nil || p.total <= 0 {
		return len(b), nil
	}
	pct := int(min(p.written*100/p.total, 100))
	if pct != p.last {
		p.limiter.Do(func() {
			p.last = pct
			p.report(pct)
		})
	}
	return len(b), nil
}

func (p *progressWriter) finish() {
	if p.report == nil || p.total <= 0 || p.last == 100 {
		return
	}
	p.last = 100
	p.report(100)
}

func unzip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	root := filepath.Clean(dest)
	for _, zf := range r.File {
		target := filepath.Join(root, zf.Name)
		if target == root {
			continue
		}
		if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("entry %q escapes destination", zf.Name)
		}
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := extractFile(zf, target); err != nil {
			return fmt.Errorf("extract %s: %w", zf.Name, err)
		}
	}
	return nil
}

func extractFile(zf *zip.File, target string) error {
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// FetchResult is the outcome of one download in FetchAll.
type FetchResult struct {
	URL string
	Dir string
	Err error
}

// FetchAll downloads independent URLs concurrently, bounded by the configured
// concurrency. Results keep the order of urls; one failure does not stop the
// others. Duplicate URLs are not collapsed.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string, progress func(url string, percent int)) []FetchResult {
	results := make([]FetchResult, len(urls))

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			var report ProgressFunc
			if progress != nil {
				report = func(pct int) { progress(u, pct) }
			}
			dir, err := f.Fetch(ctx, u, report)
			results[i] = FetchResult{URL: u, Dir: dir, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
