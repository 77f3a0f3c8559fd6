package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tapedeck/internal/server"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/jonboulle/clockwork"
	"golang.org/x/oauth2"
)

// DefaultTimeout bounds how long [Authorizer.CaptureCode] waits for the redirect.
const DefaultTimeout = 2 * time.Minute

// Authorizer runs the authorization-code flow for a single local user.
type Authorizer struct {
	creds  Credentials
	config *oauth2.Config

	httpClient *http.Client
	browser    shared.BrowserFunc
	clock      clockwork.Clock
	timeout    time.Duration
	state      string
	logger     *log.Logger
	out        io.Writer

	tokens *TokenPair
}

// Option configures an [Authorizer].
type Option func(*Authorizer)

// WithScopes replaces [DefaultScopes].
func WithScopes(scopes ...string) Option {
	return func(a *Authorizer) { a.config.Scopes = scopes }
}

// WithEndpoint points the authorizer at a different accounts service.
func WithEndpoint(authURL, tokenURL string) Option {
	return func(a *Authorizer) {
		a.config.Endpoint.AuthURL = authURL
		a.config.Endpoint.TokenURL = tokenURL
	}
}

// WithHTTPClient sets the client used for token requests.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Authorizer) { a.httpClient = c }
}

// WithBrowser replaces the function that opens the authorize URL.
func WithBrowser(fn shared.BrowserFunc) Option {
	return func(a *Authorizer) { a.browser = fn }
}

// WithClock sets the clock used for the capture timeout.
func WithClock(c clockwork.Clock) Option {
	return func(a *Authorizer) { a.clock = c }
}

// WithTimeout sets the capture timeout. Zero waits indefinitely.
func WithTimeout(d time.Duration) Option {
	return func(a *Authorizer) { a.timeout = d }
}

// WithState fixes the state parameter instead of generating one per login.
func WithState(state string) Option {
	return func(a *Authorizer) { a.state = state }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(a *Authorizer) { a.logger = l }
}

// WithOutput sets where the authorize URL is printed when no browser can be opened.
func WithOutput(w io.Writer) Option {
	return func(a *Authorizer) { a.out = w }
}

// New validates creds and returns an Authorizer that has not yet logged in.
func New(creds Credentials, opts ...Option) (*Authorizer, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	a := &Authorizer{
		creds: creds,
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURI,
			Scopes:       DefaultScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   AuthURL,
				TokenURL:  TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		browser: shared.OpenBrowser,
		clock:   clockwork.NewRealClock(),
		timeout: DefaultTimeout,
		out:     os.Stderr,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = shared.NewLogger(nil)
	}
	if a.clock == nil {
		a.clock = clockwork.NewRealClock()
	}
	if a.browser == nil {
		a.browser = shared.OpenBrowser
	}
	if a.out == nil {
		a.out = os.Stderr
	}
	return a, nil
}

// Login constructs an Authorizer and completes the browser login before returning.
func Login(ctx context.Context, creds Credentials, opts ...Option) (*Authorizer, error) {
	a, err := New(creds, opts...)
	if err != nil {
		return nil, err
	}

	if _, err := a.Authorize(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// AuthorizationURL returns the provider authorize URL. Scopes override the configured ones when given.
//
// The state parameter is included only when a state is set.
func (a *Authorizer) AuthorizationURL(scopes ...string) string {
	cfg := *a.config
	if len(scopes) > 0 {
		cfg.Scopes = scopes
	}
	return cfg.AuthCodeURL(a.state)
}

// CaptureCode opens authorizationURL in the browser and waits for the provider to redirect back
// to the redirect URI, returning the code it carries.
//
// The listener is closed before CaptureCode returns.
func (a *Authorizer) CaptureCode(ctx context.Context, authorizationURL string) (string, error) {
	srv, err := server.NewCallbackServer(a.creds.RedirectURI, a.state, a.logger)
	if err != nil {
		return "", err
	}
	defer srv.Close()

	a.logger.Info("waiting for authorization", "addr", srv.Addr())

	if err := a.browser(authorizationURL); err != nil {
		a.logger.Warn("could not open browser", "error", err)
		fmt.Fprintf(a.out, "Open this URL in your browser to continue:\n\n%s\n\n", authorizationURL)
	}

	var timeout <-chan time.Time
	if a.timeout > 0 {
		timeout = a.clock.After(a.timeout)
	}

	result, err := srv.Wait(ctx, timeout)
	if err != nil {
		return "", err
	}
	return result.Code, nil
}

// Exchange trades an authorization code for a [TokenPair].
func (a *Authorizer) Exchange(ctx context.Context, code string) (TokenPair, error) {
	if code == "" {
		return TokenPair{}, fmt.Errorf("%w: empty authorization code", shared.ErrValidation)
	}

	tok, err := a.config.Exchange(a.clientContext(ctx), code)
	if err != nil {
		return TokenPair{}, tokenError(err)
	}
	return newTokenPair(tok), nil
}

// Refresh obtains a new access token. The provider may rotate the refresh token;
// when it does not, refreshToken is carried over into the result.
func (a *Authorizer) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, fmt.Errorf("%w: empty refresh token", shared.ErrValidation)
	}

	src := a.config.TokenSource(a.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return TokenPair{}, tokenError(err)
	}

	pair := newTokenPair(tok)
	if pair.RefreshToken == "" {
		pair.RefreshToken = refreshToken
	}
	a.logger.Debug("refreshed access token", "expiry", pair.Expiry)
	return pair, nil
}

// Authorize runs the full flow: build the URL, capture the code, exchange it.
// A random state is generated when none was configured.
func (a *Authorizer) Authorize(ctx context.Context) (TokenPair, error) {
	if a.state == "" {
		state, err := shared.GenerateState()
		if err != nil {
			return TokenPair{}, err
		}
		a.state = state
	}

	code, err := a.CaptureCode(ctx, a.AuthorizationURL())
	if err != nil {
		return TokenPair{}, err
	}

	pair, err := a.Exchange(ctx, code)
	if err != nil {
		return TokenPair{}, err
	}

	a.tokens = &pair
	a.logger.Info("authorized", "token", shared.MaskToken(pair.AccessToken))
	return pair, nil
}

// Tokens returns the pair obtained by [Authorizer.Authorize], if any.
func (a *Authorizer) Tokens() (TokenPair, bool) {
	if a.tokens == nil {
		return TokenPair{}, false
	}
	return *a.tokens, true
}

func (a *Authorizer) clientContext(ctx context.Context) context.Context {
	if a.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
}

func tokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return shared.NewResponseError(shared.ErrAuthorization, status, re.Body)
	}
	return fmt.Errorf("%w: %v", shared.ErrAuthorization, err)
}
