//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package fileops_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/worldsync/pkg/fileops"
)

func TestCopy_ReportsProgressPerChunk(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	payload := strings.Repeat("w", fileops.BufferSize+10)

	var reports []int64
	var dst bytes.Buffer

	stats, err := fileops.Copy(context.Background(), &dst, strings.NewReader(payload), int64(len(payload)), "Meadow.db",
		func(done, total int64, name string) {
			g.Expect(total).Should(Equal(int64(len(payload))))
			g.Expect(name).Should(Equal("Meadow.db"))
			reports = append(reports, done)
		})

	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(stats.BytesCopied).Should(Equal(int64(len(payload))))
	g.Expect(dst.String()).Should(Equal(payload))
	g.Expect(reports).Should(Equal([]int64{fileops.BufferSize, int64(len(payload))}))
}

func TestCopy_Cancelled(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fileops.Copy(ctx, io.Discard, strings.NewReader("x"), 1, "Meadow.db", nil)
	g.Expect(errors.Is(err, fileops.ErrCopyCancelled)).Should(BeTrue())
	g.Expect(errors.Is(err, context.Canceled)).Should(BeTrue())
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) / 2, nil }

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("unexpected EOF from remote") }

func TestCopy_Failures(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := fileops.Copy(context.Background(), shortWriter{}, strings.NewReader("world"), 5, "a", nil)
	g.Expect(errors.Is(err, io.ErrShortWrite)).Should(BeTrue())

	_, err = fileops.Copy(context.Background(), io.Discard, brokenReader{}, 5, "a", nil)
	g.Expect(err).Should(MatchError(ContainSubstring("failed to read from source")))
}
