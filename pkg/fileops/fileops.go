// Package fileops provides byte-for-byte copy utilities with progress reporting and cancellation.
package fileops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Exported constants.
const (
	// BufferSize is the size of the buffer used for copy operations (64KB, matching the SFTP packet size)
	BufferSize = 64 * 1024
)

// Exported variables.
var (
	ErrCopyCancelled = errors.New("copy cancelled")
)

// CopyStats contains timing information about a copy operation
type CopyStats struct {
	BytesCopied int64
	ReadTime    time.Duration
	WriteTime   time.Duration
}

// ProgressCallback is called during copy operations to report progress
type ProgressCallback func(bytesTransferred int64, totalBytes int64, currentFile string)

// Copy copies src to dst in BufferSize chunks, reporting progress after every chunk.
// totalBytes may be 0 when the size is unknown. The context is checked between chunks.
func Copy(ctx context.Context, dst io.Writer, src io.Reader, totalBytes int64, name string, progress ProgressCallback) (*CopyStats, error) {
	stats := &CopyStats{}
	buf := make([]byte, BufferSize)

	for {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("%w: %w", ErrCopyCancelled, err)
		}

		readStart := time.Now()
		nr, readErr := src.Read(buf) //nolint:varnamelen // nr is idiomatic for bytes read
		stats.ReadTime += time.Since(readStart)

		if nr > 0 {
			writeStart := time.Now()
			nw, err := dst.Write(buf[0:nr]) //nolint:varnamelen // nw is idiomatic for bytes written
			stats.WriteTime += time.Since(writeStart)

			if err != nil {
				return stats, fmt.Errorf("failed to write to destination: %w", err)
			}

			if nr != nw {
				return stats, fmt.Errorf("short write: %w", io.ErrShortWrite)
			}

			stats.BytesCopied += int64(nw)

			if progress != nil {
				progress(stats.BytesCopied, totalBytes, name)
			}
		}

		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return stats, fmt.Errorf("failed to read from source: %w", readErr)
		}
	}

	return stats, nil
}
