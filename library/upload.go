package library

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MB is one mebibyte, the unit upload limits are configured in.
const MB = 1 << 20

const uploadChunk = 32 * 1024

// UploadTask converts a file into a data URI in the background. It has
// no notion of where the result goes: whoever started it checks that the
// target is still relevant before applying the result.
type UploadTask struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	uri string
	err error
}

// StartUpload reads r on its own goroutine and encodes it as a data URI.
// maxBytes <= 0 disables the size limit.
func StartUpload(ctx context.Context, r io.Reader, maxBytes int64) *UploadTask {
	ctx, cancel := context.WithCancel(ctx)
	t := &UploadTask{ctx: ctx, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer cancel()
		defer close(t.done)
		t.uri, t.err = encodeDataURI(ctx, r, maxBytes)
	}()
	return t
}

// Done is closed once the conversion finished, failed or was cancelled.
func (t *UploadTask) Done() <-chan struct{} { return t.done }

// Cancel stops the conversion. A finished task is unaffected.
func (t *UploadTask) Cancel() { t.cancel() }

// Wait blocks until the task completes or ctx ends.
func (t *UploadTask) Wait(ctx context.Context) (string, error) {
	select {
	case <-t.done:
		return t.uri, t.err
	case <-t.ctx.Done():
		select {
		case <-t.done:
			return t.uri, t.err
		default:
		}
		return "", t.ctx.Err()
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// FileToDataURI reads the file at path into a data URI, refusing files
// larger than maxBytes when maxBytes > 0.
func FileToDataURI(ctx context.Context, path string, maxBytes int64) (string, error) {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return "", tooLarge(maxBytes)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return StartUpload(ctx, f, maxBytes).Wait(ctx)
}

// DataURI encodes data with its sniffed media type.
func DataURI(data []byte) string {
	mime, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func encodeDataURI(ctx context.Context, r io.Reader, maxBytes int64) (string, error) {
	var buf bytes.Buffer
	chunk := make([]byte, uploadChunk)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if maxBytes > 0 && int64(buf.Len()) > maxBytes {
				return "", tooLarge(maxBytes)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read upload: %w", err)
		}
	}
	return DataURI(buf.Bytes()), nil
}

func tooLarge(maxBytes int64) error {
	return &ValidationError{
		Field: "file",
		Err:   fmt.Errorf("%w: limit is about %.1f MB", ErrFileTooLarge, float64(maxBytes)/MB),
	}
}
