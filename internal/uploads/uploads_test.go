package uploads

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
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
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 0)
	data := pngBytes(t, 12, 7)

	file, err := s.Save(data, "Living Room.PNG")
	require.NoError(t, err)

	sum := md5.Sum(data)
	expected := hex.EncodeToString(sum[:])
	assert.Equal(t, expected, file.MD5)
	assert.Equal(t, expected+".png", file.Filename)
	assert.Equal(t, "image/png", file.ContentType)
	assert.Equal(t, 12, file.Width)
	assert.Equal(t, 7, file.Height)
	assert.Equal(t, int64(len(data)), file.Size)

	onDisk, err := os.ReadFile(filepath.Join(dir, file.Filename))
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)

	opened, err := s.Open(file)
	require.NoError(t, err)
	assert.Equal(t, data, opened)
}

func TestSaveRejects(t *testing.T) {
	s := New(t.TempDir(), 64)

	_, err := s.Save(bytes.Repeat([]byte{0}, 65), "big.png")
	assert.True(t, errors.Is(err, ErrTooLarge))

	_, err = s.Save([]byte("just some text"), "notes.png")
	assert.True(t, errors.Is(err, ErrNotImage))
}

func TestRead(t *testing.T) {
	s := New(t.TempDir(), 4)

	data, err := s.Read(bytes.NewReader([]byte("abcd")))
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(data))

	_, err = s.Read(bytes.NewReader([]byte("abcde")))
	assert.True(t, errors.Is(err, ErrTooLarge))
}

func TestSaveFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "wall.png")
	require.NoError(t, os.WriteFile(src, pngBytes(t, 3, 3), 0644))

	file, err := New(t.TempDir(), 0).SaveFile(src)
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(file.Filename))
}

func TestDownload(t *testing.T) {
	data := pngBytes(t, 5, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	s := New(t.TempDir(), 0)
	file, err := s.Download(context.Background(), srv.URL+"/photos/front.png")
	require.NoError(t, err)
	assert.Equal(t, 5, file.Width)
	assert.Equal(t, ".png", filepath.Ext(file.Filename))

	_, err = s.Download(context.Background(), srv.URL+"/missing.png")
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	s := New("uploads", 0)
	tests := []struct {
		name string
		ok   bool
	}{
		{"abc.png", true},
		{"", false},
		{"../secret", false},
		{"nested/abc.png", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := s.Path(tt.name)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, filepath.Join("uploads", tt.name), p)
			}
		})
	}
}

func TestScopedStores(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 128)
	data := pngBytes(t, 2, 2)

	a, err := s.Scoped("session-a")
	require.NoError(t, err)
	b, err := s.Scoped("session-b")
	require.NoError(t, err)
	assert.Equal(t, int64(128), a.MaxBytes())

	fileA, err := a.Save(data, "wall.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "session-a", fileA.Filename), fileA.Path)

	pathB, ok := b.Path(fileA.Filename)
	require.True(t, ok)
	_, err = os.Stat(pathB)
	assert.True(t, os.IsNotExist(err), "other scopes must not see the file")

	require.NoError(t, s.RemoveScope("session-a"))
	_, err = os.Stat(fileA.Path)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, s.RemoveScope("session-a"), "removing twice is fine")

	for _, owner := range []string{"", "..", "a/b"} {
		_, err := s.Scoped(owner)
		assert.Error(t, err, owner)
		assert.Error(t, s.RemoveScope(owner), owner)
	}
}
