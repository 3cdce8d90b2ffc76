package fsutil

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression names the codec implied by a path's final extension: "gzip"
// for .gz, "zstd" for .zst and "lz4" for .lz4. Other paths return "".
func Compression(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return "gzip"
	case ".zst":
		return "zstd"
	case ".lz4":
		return "lz4"
	}
	return ""
}

// TrimCompression strips a compression extension, so "t.csv.gz" becomes
// "t.csv".
func TrimCompression(path string) string {
	if Compression(path) == "" {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// compressWriter wraps w in the codec Compression picks for path. Closing
// the result flushes the codec but never closes w.
func compressWriter(path string, w io.Writer) (io.WriteCloser, error) {
	switch Compression(path) {
	case "gzip":
		return gzip.NewWriter(w), nil
	case "zstd":
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case "lz4":
		return lz4.NewWriter(w), nil
	}
	return nopWriteCloser{w}, nil
}
