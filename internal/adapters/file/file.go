package file

import (
	"artcritic/internal/core/domain"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

var (
	ErrTooLarge      = errors.New("file exceeds size limit")
	ErrRefNotAllowed = errors.New("image reference not allowed")
)

// Loader reads user selected images from disk or over HTTP.
type Loader struct {
	maxSize int64
	client  *http.Client
	allowed []string
}

type LoaderOption func(*Loader)

// WithAllowedPrefixes restricts Load to refs starting with one of prefixes.
// Anything else, local paths included, is refused before any IO happens.
func WithAllowedPrefixes(prefixes ...string) LoaderOption {
	return func(l *Loader) {
		l.allowed = append(l.allowed, prefixes...)
	}
}

func NewLoader(maxSize int64, timeout time.Duration, opts ...LoaderOption) *Loader {
	l := &Loader{
		maxSize: maxSize,
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load fetches ref and checks that its content is an image. ref is either an
// http(s) URL or a local path.
func (l *Loader) Load(ctx context.Context, ref string) (domain.ImageAsset, error) {
	var (
		data []byte
		err  error
	)

	if !l.allows(ref) {
		log.Warn().Str("source", sourceName(ref)).Msg("refused image reference")
		return domain.ImageAsset{}, ErrRefNotAllowed
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		data, err = l.DownloadFile(ctx, ref)
	} else {
		data, err = l.ReadFile(ref)
	}
	if err != nil {
		return domain.ImageAsset{}, err
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		log.Debug().Str("source", sourceName(ref)).Str("mimeType", mtype.String()).Msg("rejected non-image file")
		return domain.ImageAsset{}, fmt.Errorf("%w: detected %s", domain.ErrUnsupportedMedia, mtype.String())
	}

	return domain.ImageAsset{Data: data, MimeType: mtype.String(), Source: sourceName(ref)}, nil
}

func (l *Loader) allows(ref string) bool {
	if len(l.allowed) == 0 {
		return true
	}
	for _, prefix := range l.allowed {
		if strings.HasPrefix(ref, prefix) {
			return true
		}
	}

	return false
}

// sourceName is the ref as it may appear in logs. URLs are cut down to host
// and file name since download links can carry credentials.
func sourceName(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return ref
	}

	return u.Host + "/" + path.Base(u.Path)
}

// DownloadFile returns the byte content of a file on a provided URL.
func (l *Loader) DownloadFile(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		err = fmt.Errorf("error creating request %w", err)
		log.Error().Err(err).Str("source", sourceName(path)).Send()
		return nil, err
	}

	res, err := l.client.Do(req)
	if err != nil {
		err = fmt.Errorf("error executing request %w", err)
		log.Error().Err(err).Str("source", sourceName(path)).Send()
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		err = fmt.Errorf("unexpected status code on download: %d", res.StatusCode)
		log.Error().Err(err).Str("source", sourceName(path)).Send()
		return nil, err
	}

	if l.maxSize > 0 && res.ContentLength > l.maxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, res.ContentLength)
	}

	buf, err := l.readLimited(res.Body)
	if err != nil {
		log.Error().Err(err).Str("source", sourceName(path)).Send()
		return nil, err
	}

	log.Debug().Str("source", sourceName(path)).Int("bytes", len(buf)).Msg("downloaded file")

	return buf, nil
}

// ReadFile reads a local file, expanding a leading ~ to the home directory.
func (l *Loader) ReadFile(path string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, rest)
		}
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("error opening file %w", err)
	}
	defer f.Close()

	return l.readLimited(f)
}

func (l *Loader) readLimited(r io.Reader) ([]byte, error) {
	if l.maxSize <= 0 {
		buf, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("error reading file %w", err)
		}
		return buf, nil
	}

	buf, err := io.ReadAll(io.LimitReader(r, l.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("error reading file %w", err)
	}
	if int64(len(buf)) > l.maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, l.maxSize)
	}

	return buf, nil
}
