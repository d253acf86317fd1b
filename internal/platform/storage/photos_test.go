package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhotosSaveOpenDelete(t *testing.T) {
	root := t.TempDir()
	photos, err := NewPhotos(root, 1024)
	require.NoError(t, err)

	rel, err := photos.Save("ES-100", ".JPG", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "profiles/ES-100.jpg", rel)

	f, err := photos.Open(rel)
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "jpeg-bytes", string(body))

	require.NoError(t, photos.Delete(rel))
	_, err = os.Stat(filepath.Join(root, "profiles", "ES-100.jpg"))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, photos.Delete(rel), "deleting a missing file is not an error")
}

func TestPhotosRejectsNonImages(t *testing.T) {
	photos, err := NewPhotos(t.TempDir(), 1024)
	require.NoError(t, err)

	_, err = photos.Save("ES-1", ".exe", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestPhotosEnforcesSizeLimit(t *testing.T) {
	photos, err := NewPhotos(t.TempDir(), 4)
	require.NoError(t, err)

	_, err = photos.Save("ES-1", ".png", strings.NewReader("too-large"))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestPhotosSanitizesNames(t *testing.T) {
	photos, err := NewPhotos(t.TempDir(), 1024)
	require.NoError(t, err)

	rel, err := photos.Save("../../etc/passwd", ".png", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "profiles/______etc_passwd.png", rel)
}

func TestPhotosRejectsTraversal(t *testing.T) {
	photos, err := NewPhotos(t.TempDir(), 1024)
	require.NoError(t, err)

	_, err = photos.Open("../secret.png")
	assert.ErrorIs(t, err, ErrOutsideRoot)
	assert.ErrorIs(t, photos.Delete("profiles/../../x.png"), ErrOutsideRoot)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentType("profiles/a.JPEG"))
	assert.Equal(t, "application/octet-stream", ContentType("profiles/a"))
}
