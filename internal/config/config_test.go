//nolint:varnamelen // Test files use idiomatic short variable names (t, tt, etc.)
package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexflint/go-arg"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/worldsync/internal/config"
	"github.com/joe/worldsync/internal/reconcile"
	"github.com/joe/worldsync/internal/store"
)

func TestConfigDescription(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(config.Config{}.Description()).ShouldNot(BeEmpty())
	g.Expect(config.Config{}.Version()).Should(HavePrefix("worldsync "))
}

func TestParse_FlagsAndDefaults(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()

	cfg, err := config.Parse([]string{"--local", dir, "--remote", "s3://saves/valheim", "Meadow"})
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(cfg.World).Should(Equal("Meadow"))
	g.Expect(cfg.Headless()).Should(BeTrue())
	g.Expect(cfg.Direction).Should(Equal(reconcile.Auto))
	g.Expect(cfg.Tolerance).Should(Equal(time.Second))
	g.Expect(cfg.PatternList).Should(Equal([]string{"*.db", "*.fwl", "*.old"}))
	g.Expect(cfg.RemoteLocation).Should(Equal(store.Location{Kind: store.KindS3, Bucket: "saves", Prefix: "valheim"}))
	g.Expect(cfg.Credentials).Should(Equal("credentials.json"))
	g.Expect(cfg.Token).Should(Equal("token.json"))
}

func TestParse_DirectionToleranceAndPatterns(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()

	cfg, err := config.Parse([]string{
		"--local", dir, "--remote", dir,
		"--direction", "download", "--tolerance", "2500ms", "--patterns", "*.db, *.fwl", "--list",
	})
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(cfg.Direction).Should(Equal(reconcile.Download))
	g.Expect(cfg.Tolerance).Should(Equal(2500 * time.Millisecond))
	g.Expect(cfg.PatternList).Should(Equal([]string{"*.db", "*.fwl"}))
	g.Expect(cfg.Headless()).Should(BeTrue())
	g.Expect(cfg.Filter().ShouldInclude("Meadow.old")).Should(BeFalse())
	g.Expect(cfg.Filter().Patterns()).Should(Equal([]string{"*.db", "*.fwl"}))
}

func TestParse_InvalidDirection(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()

	_, err := config.Parse([]string{"--local", dir, "--remote", dir, "--direction", "sideways"})
	g.Expect(err).Should(MatchError(ContainSubstring("sideways")))
}

func TestParse_Help(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := config.Parse([]string{"--help"})
	g.Expect(errors.Is(err, arg.ErrHelp)).Should(BeTrue())
}

//nolint:paralleltest // t.Setenv cannot be used with t.Parallel
func TestParse_EnvironmentAndLegacyDriveFolder(t *testing.T) {
	g := NewWithT(t)

	dir := t.TempDir()
	t.Setenv("LOCAL_FOLDER", dir)
	t.Setenv("REMOTE", "")
	t.Setenv("DRIVE_FOLDER", "1AbCdEf")

	cfg, err := config.Parse(nil)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(cfg.LocalFolder).Should(Equal(dir))
	g.Expect(cfg.Remote).Should(Equal("gdrive://1AbCdEf"))
	g.Expect(cfg.RemoteLocation.Kind).Should(Equal(store.KindDrive))
	g.Expect(cfg.Headless()).Should(BeFalse())
}

//nolint:paralleltest // t.Setenv cannot be used with t.Parallel
func TestLoadDotEnv(t *testing.T) {
	g := NewWithT(t)

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	g.Expect(os.WriteFile(envFile, []byte("WORLDSYNC_DOTENV_TEST=from-file\n"), 0o600)).Should(Succeed())

	t.Setenv("WORLDSYNC_DOTENV_TEST", "")
	g.Expect(os.Unsetenv("WORLDSYNC_DOTENV_TEST")).Should(Succeed())

	g.Expect(config.LoadDotEnv(envFile)).Should(Succeed())
	g.Expect(os.Getenv("WORLDSYNC_DOTENV_TEST")).Should(Equal("from-file"))

	g.Expect(config.LoadDotEnv(filepath.Join(dir, "missing.env"))).Should(Succeed())
}

func TestPostProcessConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "Meadow.db")

	if err := os.WriteFile(file, []byte("db"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     config.Config
		wantErr error
	}{
		{
			name:    "missing local folder",
			cfg:     config.Config{Remote: dir},
			wantErr: config.ErrLocalRequired,
		},
		{
			name:    "local folder is a file",
			cfg:     config.Config{LocalFolder: file, Remote: dir},
			wantErr: config.ErrNotDirectory,
		},
		{
			name:    "missing remote",
			cfg:     config.Config{LocalFolder: dir},
			wantErr: config.ErrRemoteRequired,
		},
		{
			name:    "negative tolerance",
			cfg:     config.Config{LocalFolder: dir, Remote: dir, Tolerance: -time.Second},
			wantErr: config.ErrNegativeTolerance,
		},
		{
			name:    "invalid pattern",
			cfg:     config.Config{LocalFolder: dir, Remote: dir, Patterns: "*.db,[invalid"},
			wantErr: config.ErrInvalidPattern,
		},
		{
			name:    "invalid remote",
			cfg:     config.Config{LocalFolder: dir, Remote: "gdrive://"},
			wantErr: store.ErrInvalidLocation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			cfg := tt.cfg
			got, err := config.PostProcessConfig(&cfg)
			g.Expect(got).Should(BeNil())
			g.Expect(errors.Is(err, tt.wantErr)).Should(BeTrue(), "got %v", err)
		})
	}
}

func TestValidatePaths_SFTPRemote(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()

	cfg := config.Config{LocalFolder: dir, Remote: "sftp://viking@nas:2222/valheim"}
	g.Expect(cfg.ValidatePaths()).Should(Succeed())
	g.Expect(cfg.RemoteLocation.Kind).Should(Equal(store.KindFolder))

	cfg = config.Config{LocalFolder: dir, Remote: "sftp://nas/valheim"}
	g.Expect(cfg.ValidatePaths()).Should(MatchError(ContainSubstring("username")))
}

func TestValidateFilePattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		wantErr bool
	}{
		{pattern: "*.db"},
		{pattern: "**/*.fwl"},
		{pattern: "*.{db,fwl,old}"},
		{pattern: "[invalid", wantErr: true},
		{pattern: "*.{db", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			err := config.ValidateFilePattern(tt.pattern)
			if tt.wantErr {
				g.Expect(errors.Is(err, config.ErrInvalidPattern)).Should(BeTrue())
			} else {
				g.Expect(err).ShouldNot(HaveOccurred())
			}
		})
	}
}

func TestStoreOptions(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	cfg := config.Config{Credentials: "c.json", Token: "t.json", S3Region: "eu-north-1", S3Endpoint: "http://minio:9000"}
	opts := cfg.StoreOptions()

	g.Expect(opts.Drive.CredentialsFile).Should(Equal("c.json"))
	g.Expect(opts.Drive.TokenFile).Should(Equal("t.json"))
	g.Expect(opts.S3.Region).Should(Equal("eu-north-1"))
	g.Expect(opts.S3.Endpoint).Should(Equal("http://minio:9000"))
}
