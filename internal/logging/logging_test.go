//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/worldsync/internal/logging"
)

func TestNew_ConsoleWithoutColourWhenNotATerminal(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var console bytes.Buffer

	logger, closeLog, err := logging.New(logging.Options{Console: &console})
	g.Expect(err).ShouldNot(HaveOccurred())
	defer closeLog()

	logger.Debug("hidden")
	logger.Info("uploaded", "file", "Meadow.db")

	g.Expect(console.String()).Should(ContainSubstring("uploaded"))
	g.Expect(console.String()).Should(ContainSubstring("file=Meadow.db"))
	g.Expect(console.String()).ShouldNot(ContainSubstring("hidden"))
	g.Expect(console.String()).ShouldNot(ContainSubstring("\x1b["))
}

func TestNew_InteractiveWritesOnlyToFile(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var console bytes.Buffer

	path := filepath.Join(t.TempDir(), "worldsync.log")

	logger, closeLog, err := logging.New(logging.Options{
		Verbose:     true,
		File:        path,
		Interactive: true,
		Console:     &console,
	})
	g.Expect(err).ShouldNot(HaveOccurred())

	logger.Debug("scan complete", "records", 3)
	closeLog()

	data, err := os.ReadFile(path)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(string(data)).Should(ContainSubstring("scan complete"))
	g.Expect(string(data)).Should(ContainSubstring("records=3"))
	g.Expect(console.String()).Should(BeEmpty())
}

func TestNew_ConsoleAndFile(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var console bytes.Buffer

	path := filepath.Join(t.TempDir(), "worldsync.log")

	logger, closeLog, err := logging.New(logging.Options{File: path, Console: &console})
	g.Expect(err).ShouldNot(HaveOccurred())

	logger.With("world", "Meadow").Warn("skipping file")
	closeLog()

	data, err := os.ReadFile(path)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(string(data)).Should(ContainSubstring("world=Meadow"))
	g.Expect(console.String()).Should(ContainSubstring("world=Meadow"))
}

func TestNew_UnwritableLogFile(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, closeLog, err := logging.New(logging.Options{File: filepath.Join(t.TempDir(), "missing", "x.log")})
	g.Expect(err).Should(HaveOccurred())
	g.Expect(closeLog).ShouldNot(BeNil())
}
