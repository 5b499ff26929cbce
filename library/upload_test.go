package library

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestDataURISniffsMediaType(t *testing.T) {
	uri := DataURI(pngHeader)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"), uri)

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, raw)

	// Parameters such as charset are dropped from the media type.
	assert.True(t, strings.HasPrefix(DataURI([]byte("plain words")), "data:text/plain;base64,"))
}

func TestFileToDataURI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cover.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o600))

	uri, err := FileToDataURI(context.Background(), path, 5*MB)
	require.NoError(t, err)
	assert.Equal(t, DataURI(pngHeader), uri)
}

func TestFileToDataURIRejectsLargeFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.bin")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{1}, 2048), 0o600))

	_, err := FileToDataURI(context.Background(), path, 1024)
	require.ErrorIs(t, err, ErrFileTooLarge)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "file", ve.Field)

	_, err = FileToDataURI(context.Background(), filepath.Join(t.TempDir(), "missing.png"), 0)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestUploadLimitAppliesWhileStreaming(t *testing.T) {
	task := StartUpload(context.Background(), bytes.NewReader(make([]byte, 100*1024)), 50*1024)
	_, err := task.Wait(context.Background())
	require.ErrorIs(t, err, ErrFileTooLarge)

	task = StartUpload(context.Background(), bytes.NewReader(make([]byte, 100*1024)), 0)
	uri, err := task.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:"))
}

func TestCancelUpload(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	task := StartUpload(context.Background(), pr, 0)
	task.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := task.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)

	pw.Close()
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("upload goroutine did not exit")
	}
}

func TestUploadResultFeedsEditor(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.ctrl.Login("admin", "secret"))
	c := app.ctrl

	tok := c.OpenBookEditor(0)
	task := StartUpload(context.Background(), bytes.NewReader(pngHeader), MB)
	c.CloseModals() // user dismissed the form before the upload finished

	uri, err := task.Wait(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, c.AttachCover(tok, uri), ErrStaleUpload)
}
