package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Exported variables.
var (
	ErrNoAuthCode    = errors.New("no authorization code received")
	ErrConsentDenied = errors.New("consent was denied by Google")
)

const consentPage = "worldsync is authorized. You can close this window."

// DriveAuth locates the OAuth client credentials and the cached user token.
type DriveAuth struct {
	CredentialsFile string
	TokenFile       string
	// Prompt receives the consent URL on first use. Google redirects the browser to a
	// loopback server started for the duration of the consent.
	Prompt io.Writer
}

// TokenSource loads the cached token, refreshing it when it has expired, or runs the
// consent flow when there is no usable token. Every new token is written back to the cache.
func (a DriveAuth) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	raw, err := os.ReadFile(a.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read Google credentials %s: %w", a.CredentialsFile, err)
	}

	config, err := google.ConfigFromJSON(raw, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Google credentials %s: %w", a.CredentialsFile, err)
	}

	token, err := loadToken(a.TokenFile)
	if err == nil && !token.Valid() {
		token, err = config.TokenSource(ctx, token).Token()
	}

	if err != nil {
		token, err = a.authorize(ctx, config)
		if err != nil {
			return nil, err
		}
	}

	if err := saveToken(a.TokenFile, token); err != nil {
		return nil, err
	}

	return &cachingTokenSource{
		base: config.TokenSource(ctx, token),
		path: a.TokenFile,
		last: token.AccessToken,
	}, nil
}

// ClientOption wraps TokenSource for OpenDrive.
func (a DriveAuth) ClientOption(ctx context.Context) (option.ClientOption, error) {
	source, err := a.TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	return option.WithTokenSource(source), nil
}

type consentResult struct {
	code string
	err  error
}

// authorize runs the installed-app consent flow with a loopback redirect.
func (a DriveAuth) authorize(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start consent listener: %w", err)
	}

	consent := *config
	consent.RedirectURL = "http://" + listener.Addr().String() + "/"
	state := uuid.NewString()
	results := make(chan consentResult, 1)

	server := &http.Server{
		Handler:           consentHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() { _ = server.Serve(listener) }()
	defer server.Close()

	prompt := a.Prompt
	if prompt == nil {
		prompt = os.Stdout
	}

	_, _ = fmt.Fprintf(prompt, "Open this link in your browser to authorize Google Drive access:\n%v\n",
		consent.AuthCodeURL(state, oauth2.AccessTypeOffline))

	var result consentResult

	select {
	case result = <-results:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for Google consent: %w", ctx.Err())
	}

	if result.err != nil {
		return nil, result.err
	}

	token, err := consent.Exchange(ctx, result.code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	return token, nil
}

// consentHandler receives the redirect and reports the first answer carrying state.
func consentHandler(state string, results chan<- consentResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("state") != state {
			http.Error(w, "unexpected state", http.StatusBadRequest)
			return
		}

		var result consentResult

		switch {
		case query.Get("error") != "":
			result.err = fmt.Errorf("%w: %s", ErrConsentDenied, query.Get("error"))
		case query.Get("code") == "":
			result.err = ErrNoAuthCode
		default:
			result.code = query.Get("code")
		}

		select {
		case results <- result:
		default:
		}

		if result.err != nil {
			http.Error(w, result.err.Error(), http.StatusBadRequest)
			return
		}

		_, _ = io.WriteString(w, consentPage)
	})
}

// cachingTokenSource writes every refreshed token back to the cache file.
type cachingTokenSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (c *cachingTokenSource) Token() (*oauth2.Token, error) {
	token, err := c.base.Token()
	if err != nil {
		return nil, err //nolint:wrapcheck // oauth2 errors are reported by the Drive client
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if token.AccessToken != c.last {
		// A failed cache write does not fail the request; the next run refreshes again.
		if saveToken(c.path, token) == nil {
			c.last = token.AccessToken
		}
	}

	return token, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	file, err := os.Open(path) // #nosec G304 - token path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open token %s: %w", path, err)
	}
	defer file.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(file).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode token %s: %w", path, err)
	}

	return token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600) // #nosec G304 - token path comes from configuration
	if err != nil {
		return fmt.Errorf("failed to cache token in %s: %w", path, err)
	}
	defer file.Close()

	if err := json.NewEncoder(file).Encode(token); err != nil {
		return fmt.Errorf("failed to write token %s: %w", path, err)
	}

	return nil
}
