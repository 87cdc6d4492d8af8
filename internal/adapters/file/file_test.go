package file

import (
	"artcritic/internal/core/domain"
	"bytes"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestDownloadFile(t *testing.T) {
	tests := []struct {
		name       string
		inputBytes []byte
		status     int
		maxSize    int64
		wantErr    bool
	}{
		{
			name:       "success",
			inputBytes: []byte("test\n"),
			status:     http.StatusOK,
			wantErr:    false,
		},
		{
			name:       "not found",
			inputBytes: []byte("not found"),
			status:     http.StatusNotFound,
			wantErr:    true,
		},
		{
			name:       "too large",
			inputBytes: []byte("0123456789"),
			status:     http.StatusOK,
			maxSize:    4,
			wantErr:    true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, err := w.Write(tc.inputBytes)
				assert.NoError(t, err)
			}))
			defer srv.Close()

			res, err := NewLoader(tc.maxSize, time.Second).DownloadFile(t.Context(), srv.URL)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.inputBytes, res)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "art.png")
	textPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(imgPath, pngBytes(t), 0o600))
	require.NoError(t, os.WriteFile(textPath, []byte("just some text"), 0o600))

	tests := []struct {
		name     string
		ref      string
		maxSize  int64
		wantMime string
		wantErr  error
	}{
		{name: "local image", ref: imgPath, wantMime: "image/png"},
		{name: "local text file", ref: textPath, wantErr: domain.ErrUnsupportedMedia},
		{name: "over size limit", ref: imgPath, maxSize: 8, wantErr: ErrTooLarge},
		{name: "missing file", ref: filepath.Join(dir, "missing.png"), wantErr: os.ErrNotExist},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			asset, err := NewLoader(tc.maxSize, time.Second).Load(t.Context(), tc.ref)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantMime, asset.MimeType)
			assert.Equal(t, tc.ref, asset.Source)
			assert.NotEmpty(t, asset.Data)
		})
	}
}

func TestLoadURL(t *testing.T) {
	data := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/art.png" {
			_, _ = w.Write(data)
			return
		}
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	l := NewLoader(1<<20, time.Second)

	asset, err := l.Load(t.Context(), srv.URL+"/art.png")
	require.NoError(t, err)
	assert.Equal(t, data, asset.Data)
	assert.Equal(t, "image/png", asset.MimeType)

	_, err = l.Load(t.Context(), srv.URL+"/page")
	require.ErrorIs(t, err, domain.ErrUnsupportedMedia)
}

func TestLoadAllowedPrefixes(t *testing.T) {
	var hits atomic.Int32
	data := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	allowed := srv.URL + "/file/bot123/"
	l := NewLoader(1<<20, time.Second, WithAllowedPrefixes(allowed))

	tests := []struct {
		name string
		ref  string
	}{
		{name: "local system file", ref: "/etc/hosts"},
		{name: "home relative path", ref: "~/.ssh/id_rsa"},
		{name: "relative path", ref: "art.png"},
		{name: "metadata endpoint", ref: "http://169.254.169.254/latest/meta-data/"},
		{name: "same host other path", ref: srv.URL + "/admin"},
		{name: "prefix as query", ref: "http://example.com/?u=" + allowed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.Load(t.Context(), tc.ref)
			require.ErrorIs(t, err, ErrRefNotAllowed)
			assert.NotErrorIs(t, err, os.ErrNotExist)
			assert.NotErrorIs(t, err, os.ErrPermission)
		})
	}
	assert.Equal(t, int32(0), hits.Load())

	asset, err := l.Load(t.Context(), allowed+"photos/file_1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/png", asset.MimeType)
	assert.Equal(t, int32(1), hits.Load())
	assert.NotContains(t, asset.Source, "bot123")
}
