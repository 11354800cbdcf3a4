// Package auth provides Spotify OAuth2 authentication with token caching.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/nerudesu/PlayPulse/internal/logging"
	webassets "github.com/nerudesu/PlayPulse/web"
)

// DefaultCallbackTimeout bounds how long the login flow waits for the browser redirect.
const DefaultCallbackTimeout = 2 * time.Minute

var (
	// ErrMissingCredentials is returned when the client id, secret or redirect URI is empty.
	ErrMissingCredentials = errors.New("missing spotify client id, client secret or redirect URI")

	// ErrNotAuthenticated is returned when no usable token exists and interactive login is disabled.
	ErrNotAuthenticated = errors.New("not authenticated: run the login command first")

	// ErrAuthTimeout is returned when the OAuth callback is not received in time.
	ErrAuthTimeout = errors.New("authentication timed out waiting for callback")

	// ErrStateMismatch is returned when the OAuth state parameter doesn't match.
	ErrStateMismatch = errors.New("OAuth state mismatch")
)

// Credentials identify the Spotify application.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Provider hands out access tokens for the currently-playing scope.
// It is safe for concurrent use; token loading, refreshing and the login
// flow are serialized by a mutex.
type Provider struct {
	auth            *spotifyauth.Authenticator
	redirectURL     string
	httpClient      *http.Client
	store           TokenStore
	logger          *log.Logger
	interactive     bool
	prompt          func(authURL string)
	callbackTimeout time.Duration

	mu    sync.Mutex
	token *oauth2.Token
}

// Option configures a Provider.
type Option func(*Provider)

// WithStore sets where tokens are persisted. Without it tokens live in memory only.
func WithStore(store TokenStore) Option {
	return func(p *Provider) {
		if store != nil {
			p.store = store
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Provider) {
		p.logger = logging.OrDefault(l)
	}
}

// WithInteractiveLogin enables the browser login flow when no token is stored.
func WithInteractiveLogin(enabled bool) Option {
	return func(p *Provider) {
		p.interactive = enabled
	}
}

// WithPrompt replaces the function that shows the authorize URL to the user.
func WithPrompt(fn func(authURL string)) Option {
	return func(p *Provider) {
		if fn != nil {
			p.prompt = fn
		}
	}
}

// WithCallbackTimeout sets how long the login flow waits for the redirect.
func WithCallbackTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.callbackTimeout = d
		}
	}
}

// WithHTTPClient sets the HTTP client used to talk to the Spotify accounts service.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = hc
	}
}

// New creates a Provider for the given application credentials.
// Returns ErrMissingCredentials if any credential is empty.
func New(creds Credentials, opts ...Option) (*Provider, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" || creds.RedirectURI == "" {
		return nil, ErrMissingCredentials
	}

	p := &Provider{
		auth: spotifyauth.New(
			spotifyauth.WithClientID(creds.ClientID),
			spotifyauth.WithClientSecret(creds.ClientSecret),
			spotifyauth.WithRedirectURL(creds.RedirectURI),
			spotifyauth.WithScopes(spotifyauth.ScopeUserReadCurrentlyPlaying),
		),
		redirectURL:     creds.RedirectURI,
		store:           &memoryStore{},
		logger:          log.Default(),
		callbackTimeout: DefaultCallbackTimeout,
		prompt: func(authURL string) {
			fmt.Fprintln(os.Stdout, "\nTo authenticate, open this URL in your browser:")
			fmt.Fprintln(os.Stdout, authURL)
			fmt.Fprintln(os.Stdout, "\nWaiting for authentication...")
		},
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Token returns a valid access token.
// It uses the in-memory token when valid, otherwise the stored token,
// refreshing it when expired. With interactive login enabled, a missing or
// unrefreshable token starts the full OAuth flow.
func (p *Provider) Token(ctx context.Context) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token == nil {
		token, err := p.store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading cached token: %w", err)
		}

		if token == nil {
			if !p.interactive {
				return nil, ErrNotAuthenticated
			}
			return p.authenticate(ctx)
		}

		p.token = token
	}

	if p.token.Valid() {
		return p.token, nil
	}

	refreshed, err := p.refresh(ctx)
	if err != nil {
		if !p.interactive {
			return nil, err
		}
		p.logger.Warn("cached token invalid, starting new authentication", "error", err)
		return p.authenticate(ctx)
	}

	p.logger.Debug("access token refreshed", "expiry", refreshed.Expiry)
	p.token = refreshed
	p.save(ctx, refreshed)

	return refreshed, nil
}

// refresh trades the refresh token for a new access token.
// The refresher keeps the old refresh token when Spotify omits a new one.
func (p *Provider) refresh(ctx context.Context) (*oauth2.Token, error) {
	if p.token.RefreshToken == "" {
		return nil, ErrNotAuthenticated
	}

	refreshed, err := p.auth.RefreshToken(p.accountsContext(ctx), p.token)
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	return refreshed, nil
}

// authenticate runs the OAuth flow and keeps the result.
// It must be called with p.mu held.
func (p *Provider) authenticate(ctx context.Context) (*oauth2.Token, error) {
	token, err := p.runOAuthFlow(ctx)
	if err != nil {
		return nil, err
	}
	p.token = token
	p.save(ctx, token)
	return token, nil
}

// Login forces the interactive OAuth flow and stores the resulting token.
func (p *Provider) Login(ctx context.Context) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	token, err := p.runOAuthFlow(ctx)
	if err != nil {
		return nil, err
	}

	p.token = token
	if err := p.store.Save(ctx, token); err != nil {
		return nil, fmt.Errorf("caching token: %w", err)
	}

	return token, nil
}

// Logout forgets the in-memory token and removes the stored one.
func (p *Provider) Logout(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.token = nil
	return p.store.Delete(ctx)
}

// Client returns an HTTP client that authorizes every request with the
// provider's current token.
func (p *Provider) Client(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(nil, contextTokenSource{ctx: ctx, p: p}))
}

// accountsContext routes token requests through the configured HTTP client.
func (p *Provider) accountsContext(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// save persists the token, logging rather than failing: the token itself is usable.
func (p *Provider) save(ctx context.Context, token *oauth2.Token) {
	if err := p.store.Save(ctx, token); err != nil {
		p.logger.Warn("failed to cache token", "error", err)
	}
}

// runOAuthFlow performs the full OAuth authorization code flow.
// It must be called with p.mu held.
func (p *Provider) runOAuthFlow(ctx context.Context) (*oauth2.Token, error) {
	redirect, err := url.Parse(p.redirectURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redirect URI: %w", err)
	}

	state := generateState()

	tokenCh := make(chan *oauth2.Token, 1)
	errCh := make(chan error, 1)

	callbackPath := redirect.Path
	if callbackPath == "" {
		callbackPath = "/"
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		p.handleCallback(w, r, state, tokenCh, errCh)
	})

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("starting callback listener: %w", err)
	}

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("callback server error: %w", err)
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	p.logger.Info("waiting for spotify authorization", "callback", redirect.String())
	p.prompt(p.auth.AuthURL(state))

	select {
	case token := <-tokenCh:
		p.logger.Info("spotify authorization complete")
		return token, nil
	case err := <-errCh:
		return nil, err
	case <-time.After(p.callbackTimeout):
		return nil, ErrAuthTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// handleCallback processes the OAuth callback from Spotify.
func (p *Provider) handleCallback(w http.ResponseWriter, r *http.Request, expectedState string, tokenCh chan<- *oauth2.Token, errCh chan<- error) {
	query := r.URL.Query()

	if query.Get("state") != expectedState {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		sendErr(errCh, ErrStateMismatch)
		return
	}

	if errMsg := query.Get("error"); errMsg != "" {
		http.Error(w, "Authentication failed: "+errMsg, http.StatusBadRequest)
		sendErr(errCh, fmt.Errorf("spotify auth error: %s", errMsg))
		return
	}

	token, err := p.auth.Token(p.accountsContext(r.Context()), expectedState, r)
	if err != nil {
		http.Error(w, "Failed to get token", http.StatusInternalServerError)
		sendErr(errCh, fmt.Errorf("exchanging code for token: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(webassets.CallbackPage)

	select {
	case tokenCh <- token:
	default:
	}
}

func sendErr(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
	}
}

// generateState creates a random 32 character state string for OAuth.
func generateState() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// contextTokenSource adapts Provider to oauth2.TokenSource for one context.
type contextTokenSource struct {
	ctx context.Context
	p   *Provider
}

func (s contextTokenSource) Token() (*oauth2.Token, error) {
	return s.p.Token(s.ctx)
}

// memoryStore is the default TokenStore: nothing survives a restart.
type memoryStore struct {
	mu    sync.Mutex
	token *oauth2.Token
}

func (s *memoryStore) Load(_ context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *memoryStore) Save(_ context.Context, token *oauth2.Token) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Delete(_ context.Context) error {
	s.mu.Lock()
	s.token = nil
	s.mu.Unlock()
	return nil
}
