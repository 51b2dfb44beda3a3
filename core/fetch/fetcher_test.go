package fetch

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFetchHTTP(t *testing.T) {
	data := pngBytes(t, 40, 20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "image/*", r.Header.Get("Accept"))
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	f := New(zaptest.NewLogger(t))
	img, err := f.FetchImage(context.Background(), srv.URL+"/a.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, "png", img.Ext)
	assert.Equal(t, 40, img.Width)
	assert.Equal(t, 20, img.Height)
	assert.Equal(t, data, img.Data)

	_, err = f.FetchImage(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestFetchDataURLAndFile(t *testing.T) {
	data := pngBytes(t, 8, 8)
	f := New(zaptest.NewLogger(t)).AllowLocal()

	img, err := f.FetchImage(context.Background(), "data:image/png;base64,"+base64.StdEncoding.EncodeToString(data))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Width)

	path := filepath.Join(t.TempDir(), "x.png")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	img, err = f.FetchImage(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Height)

	img, err = f.FetchImage(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, "png", img.Ext)

	_, err = f.FetchImage(context.Background(), "data:nocomma")
	assert.Error(t, err)
}

func TestLocalFileAccess(t *testing.T) {
	ctx := context.Background()
	data := pngBytes(t, 4, 4)
	dir := t.TempDir()
	images := filepath.Join(dir, "images")
	require.NoError(t, os.Mkdir(images, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(images, "x.png"), data, 0o644))
	secret := filepath.Join(dir, "secret.png")
	require.NoError(t, os.WriteFile(secret, data, 0o644))

	f := New(zaptest.NewLogger(t))
	assert.False(t, f.LocalFiles())
	for _, ref := range []string{secret, "file://" + secret, "secret.png"} {
		_, err := f.FetchImage(ctx, ref)
		assert.ErrorIs(t, err, ErrLocalFile, ref)
	}

	root, err := os.OpenRoot(images)
	require.NoError(t, err)
	defer root.Close()
	f.WithRoot(root)
	assert.True(t, f.LocalFiles())

	img, err := f.FetchImage(ctx, "x.png")
	require.NoError(t, err)
	assert.Equal(t, 4, img.Width)
	for _, ref := range []string{"../secret.png", secret, "file://" + secret} {
		_, err := f.FetchImage(ctx, ref)
		assert.Error(t, err, ref)
	}
}

func TestFetchRejectsNonImage(t *testing.T) {
	f := New(zaptest.NewLogger(t))
	_, err := f.FetchImage(context.Background(), "data:text/plain,hello%20world")
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestFetchDownscales(t *testing.T) {
	data := pngBytes(t, 300, 100)
	f := New(zaptest.NewLogger(t)).WithMaxEdge(150)
	img, err := f.FetchImage(context.Background(), "data:image/png;base64,"+base64.StdEncoding.EncodeToString(data))
	require.NoError(t, err)
	assert.Equal(t, 150, img.Width)
	assert.Equal(t, 50, img.Height)
	assert.NotEqual(t, data, img.Data)
}

func TestFit(t *testing.T) {
	tests := []struct {
		w, h, mw, mh int
		ww, wh       int
	}{
		{100, 50, 500, 300, 100, 50},
		{1000, 500, 500, 300, 500, 250},
		{500, 1000, 500, 300, 150, 300},
		{0, 0, 500, 300, 500, 300},
	}
	for _, tt := range tests {
		w, h := Fit(tt.w, tt.h, tt.mw, tt.mh)
		assert.Equal(t, tt.ww, w)
		assert.Equal(t, tt.wh, h)
	}
}
