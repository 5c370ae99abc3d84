// Package config handles application configuration and command-line argument parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"

	"github.com/joe/worldsync/internal/catalog"
	"github.com/joe/worldsync/internal/reconcile"
	"github.com/joe/worldsync/internal/store"
	"github.com/joe/worldsync/pkg/filesystem"
)

// Exported variables.
var (
	ErrLocalRequired     = errors.New("local folder is required (--local or LOCAL_FOLDER)")
	ErrRemoteRequired    = errors.New("remote is required (--remote, REMOTE or DRIVE_FOLDER)")
	ErrNotDirectory      = errors.New("not a directory")
	ErrNegativeTolerance = errors.New("tolerance must not be negative")
	ErrInvalidPattern    = errors.New("invalid file pattern")
)

// Config holds the application configuration
type Config struct {
	World       string              `arg:"positional" help:"World to sync without showing the picker"`
	LocalFolder string              `arg:"-l,--local,env:LOCAL_FOLDER" help:"Local worlds folder"`
	Remote      string              `arg:"-r,--remote,env:REMOTE" help:"Remote: gdrive://FOLDER_ID, s3://bucket/prefix, sftp://user@host/path or a directory"`
	DriveFolder string              `arg:"--drive-folder,env:DRIVE_FOLDER" help:"Google Drive folder id, used when --remote is empty"`
	List        bool                `arg:"--list" help:"Print the sync table and exit"`
	Direction   reconcile.Direction `arg:"-d,--direction" help:"auto|upload|download"`
	Tolerance   time.Duration       `arg:"--tolerance,env:WORLDSYNC_TOLERANCE" help:"Timestamp difference still treated as in sync"`
	Patterns    string              `arg:"--patterns,env:WORLDSYNC_PATTERNS" help:"Comma separated save file globs"`
	Credentials string              `arg:"--credentials,env:GOOGLE_CREDENTIALS" help:"Google OAuth client credentials file"`
	Token       string              `arg:"--token,env:GOOGLE_TOKEN" help:"Cached Google OAuth token file"`
	S3Region    string              `arg:"--s3-region,env:AWS_REGION" help:"S3 region"`
	S3Endpoint  string              `arg:"--s3-endpoint,env:S3_ENDPOINT" help:"S3-compatible endpoint URL (path-style)"`
	LogFile     string              `arg:"--log-file,env:WORLDSYNC_LOG" help:"Write logs to this file (the picker discards logs otherwise)"`
	Verbose     bool                `arg:"-v,--verbose" help:"Debug logging"`

	// Set by PostProcessConfig.
	PatternList    []string       `arg:"-"`
	RemoteLocation store.Location `arg:"-"`
}

// Description returns the program description for go-arg
func (Config) Description() string {
	return "Keep game worlds in sync between a local folder and cloud storage"
}

// Version returns the version string for go-arg
func (Config) Version() string {
	return "worldsync 1.0.0"
}

// Headless reports whether the run should skip the interactive picker.
func (cfg *Config) Headless() bool {
	return cfg.World != "" || cfg.List
}

// Defaults returns a Config with every default applied.
func Defaults() *Config {
	return &Config{
		Direction:   reconcile.Auto,
		Tolerance:   reconcile.DefaultTolerance,
		Patterns:    strings.Join(catalog.DefaultPatterns, ","),
		Credentials: "credentials.json",
		Token:       "token.json",
	}
}

// ParseFlags loads .env, parses command-line flags and returns configuration
func ParseFlags() (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := Defaults()

	arg.MustParse(cfg)

	return PostProcessConfig(cfg)
}

// Parse parses args (without the program name) the same way ParseFlags does, returning
// arg.ErrHelp or arg.ErrVersion when those were requested.
func Parse(args []string) (*Config, error) {
	cfg := Defaults()

	parser, err := arg.NewParser(arg.Config{Program: "worldsync"}, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build argument parser: %w", err)
	}

	if err := parser.Parse(args); err != nil {
		return nil, err //nolint:wrapcheck // callers compare against arg.ErrHelp
	}

	return PostProcessConfig(cfg)
}

// LoadDotEnv loads variables from path without overriding the environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("failed to load %s: %w", path, err)
}

// PostProcessConfig applies post-processing logic to a parsed config
func PostProcessConfig(cfg *Config) (*Config, error) {
	local, err := filesystem.ExpandHome(strings.TrimSpace(cfg.LocalFolder))
	if err != nil {
		return nil, err
	}

	cfg.LocalFolder = local

	if strings.TrimSpace(cfg.Remote) == "" && strings.TrimSpace(cfg.DriveFolder) != "" {
		cfg.Remote = "gdrive://" + strings.TrimSpace(cfg.DriveFolder)
	}

	if err := cfg.ValidatePaths(); err != nil {
		return nil, err
	}

	if cfg.Tolerance < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegativeTolerance, cfg.Tolerance)
	}

	cfg.PatternList = catalog.ParsePatterns(cfg.Patterns)
	for _, pattern := range cfg.PatternList {
		if err := ValidateFilePattern(pattern); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// ValidatePaths validates that the local folder is a directory and the remote parses
func (cfg *Config) ValidatePaths() error {
	if cfg.LocalFolder == "" {
		return ErrLocalRequired
	}

	info, err := os.Stat(cfg.LocalFolder)
	if os.IsNotExist(err) {
		return fmt.Errorf("local folder does not exist: %s", cfg.LocalFolder) //nolint:err113 // user-facing message
	}

	if err != nil {
		return fmt.Errorf("cannot access local folder: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("local folder %s: %w", cfg.LocalFolder, ErrNotDirectory)
	}

	if strings.TrimSpace(cfg.Remote) == "" {
		return ErrRemoteRequired
	}

	location, err := store.ParseLocation(cfg.Remote)
	if err != nil {
		return err //nolint:wrapcheck // already names the location
	}

	if location.Kind == store.KindFolder && strings.HasPrefix(location.Path, "sftp://") {
		if _, err := filesystem.ParsePath(location.Path); err != nil {
			return fmt.Errorf("invalid remote: %w", err)
		}
	}

	cfg.RemoteLocation = location

	return nil
}

// ValidateFilePattern checks that pattern is a valid doublestar glob
func ValidateFilePattern(pattern string) error {
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}

	return nil
}

// StoreOptions returns what store.Open needs beyond the remote location.
func (cfg *Config) StoreOptions() store.Options {
	return store.Options{
		S3: store.S3Config{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
		Drive: store.DriveAuth{
			CredentialsFile: cfg.Credentials,
			TokenFile:       cfg.Token,
		},
	}
}

// Filter returns the save file filter for the configured patterns.
func (cfg *Config) Filter() *catalog.GlobFilter {
	return catalog.NewGlobFilter(cfg.PatternList...)
}
