// Package images keeps local copies of images embedded in converted pages.
//
// Files in the output directory double as the index of what has been saved:
// a file is claimed with an exclusive create, so each filename is written at
// most once no matter how many pages (or runs) reference it.
package images

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultExt is appended to derived names without a known image extension.
const DefaultExt = ".png"

var (
	// ErrNoFilename means no usable filename could be derived from the URL.
	ErrNoFilename = errors.New("cannot derive image filename")
	// ErrDownload wraps any failure while fetching or writing an image.
	ErrDownload = errors.New("image download failed")
)

// lastSegmentRe finds the first path segment that ends the path, i.e. is
// followed by a query string or the end of the URL.
var lastSegmentRe = regexp.MustCompile(`/([^/?]+)(?:\?|$)`)

var knownExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// Getter fetches the bytes behind a URL. *fetch.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// Outcome says what Localize did with an image.
type Outcome int

const (
	// Skipped means downloads are disabled; the remote URL stays in place.
	Skipped Outcome = iota
	// Saved means the image was fetched and written during this call.
	Saved
	// AlreadyPresent means an earlier call or run already saved the file.
	AlreadyPresent
)

func (o Outcome) String() string {
	switch o {
	case Saved:
		return "saved"
	case AlreadyPresent:
		return "already-present"
	default:
		return "skipped"
	}
}

// Result is the outcome of a Localize call. Filename is relative to the
// output directory and is empty when Outcome is Skipped.
type Result struct {
	Filename string
	Outcome  Outcome
}

// Localizer saves images into Dir.
type Localizer struct {
	Dir    string
	Getter Getter
	// Delay is slept after each successful fetch.
	Delay time.Duration
	// Download disables all I/O when false.
	Download bool
}

// Localize makes sure a local copy of src exists in l.Dir and returns its
// filename. Any error leaves no file behind (best effort) and callers keep
// using the remote URL.
func (l *Localizer) Localize(ctx context.Context, src string) (Result, error) {
	if l == nil || !l.Download {
		return Result{Outcome: Skipped}, nil
	}
	name, err := FilenameFor(src)
	if err != nil {
		return Result{}, err
	}
	path := filepath.Join(l.Dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			log.Debug().Str("filename", name).Msg("image has already been saved; skipping")
			return Result{Filename: name, Outcome: AlreadyPresent}, nil
		}
		return Result{}, fmt.Errorf("%w: create %s: %v", ErrDownload, name, err)
	}

	log.Debug().Str("url", src).Str("filename", name).Msg("downloading image")
	if err := l.fill(ctx, f, src); err != nil {
		_ = f.Close()
		// Don't leave a partial file; the next run retries it.
		if rerr := os.Remove(path); rerr != nil {
			log.Warn().Err(rerr).Str("filename", name).Msg("failed to remove incomplete file")
		}
		return Result{}, fmt.Errorf("%w: %s: %v", ErrDownload, src, err)
	}
	return Result{Filename: name, Outcome: Saved}, nil
}

func (l *Localizer) fill(ctx context.Context, f *os.File, src string) error {
	if l.Getter == nil {
		return errors.New("no getter configured")
	}
	body, _, err := l.Getter.Get(ctx, src)
	if err != nil {
		return err
	}
	if err := sleep(ctx, l.Delay); err != nil {
		return err
	}
	if _, err := f.Write(body); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// FilenameFor derives the local filename for an image URL: the last path
// segment without its query string, with DefaultExt appended unless it
// already carries a known image extension.
func FilenameFor(src string) (string, error) {
	m := lastSegmentRe.FindStringSubmatch(src)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrNoFilename, src)
	}
	name := m[1]
	if name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrNoFilename, src)
	}
	if !knownExts[strings.ToLower(filepath.Ext(name))] {
		name += DefaultExt
	}
	return name, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
