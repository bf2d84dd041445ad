package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/character-studio/internal/result"
)

const (
	lineAuthorizeURL  = "https://access.line.me/oauth2/v2.1/authorize"
	lineDefaultAPIURL = "https://api.line.me"

	// stateLength is the length of the generated OAuth state parameter.
	stateLength = 32

	// maxErrorBody caps how much of a failed provider response we keep.
	maxErrorBody = 4 << 10
)

var (
	ErrExchangeFailed      = errors.New("line: token exchange failed")
	ErrProfileFetchFailed  = errors.New("line: profile fetch failed")
	ErrIDTokenVerifyFailed = errors.New("line: id token verification failed")
)

// ProviderError describes a failed call to LINE. StatusCode is 0 when the
// request never got a response (DNS, TLS, timeout).
type ProviderError struct {
	Kind       error // one of the Err*Failed sentinels
	StatusCode int
	Body       string
	Cause      error
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%v: %d %s", e.Kind, e.StatusCode, e.Body)
	case e.Cause != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Cause)
	default:
		return e.Kind.Error()
	}
}

func (e *ProviderError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// LineConfig holds the channel credentials from the LINE Developers console.
type LineConfig struct {
	ClientID            string
	ClientSecret        string
	CallbackURL         string // must match the console's registered callback exactly
	FrontendRedirectURL string // where the browser lands after the callback

	// APIBaseURL and AuthorizeURL override LINE's endpoints (tests).
	APIBaseURL   string
	AuthorizeURL string

	// HTTPClient is used for every outbound call. Defaults to a client with a 10s timeout.
	HTTPClient *http.Client
}

// TokenBundle is the result of a successful code exchange.
type TokenBundle struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
	Expiry       time.Time
	Scope        string
	IDToken      string
}

// LineProfile is the body of GET /v2/profile.
type LineProfile struct {
	UserID        string `json:"userId"`
	DisplayName   string `json:"displayName"`
	PictureURL    string `json:"pictureUrl,omitempty"`
	StatusMessage string `json:"statusMessage,omitempty"`
}

// IDTokenClaims is the body of a successful POST /oauth2/v2.1/verify.
type IDTokenClaims struct {
	Issuer   string   `json:"iss"`
	Subject  string   `json:"sub"`
	Audience string   `json:"aud"`
	Expiry   int64    `json:"exp"`
	IssuedAt int64    `json:"iat"`
	Nonce    string   `json:"nonce,omitempty"`
	AMR      []string `json:"amr,omitempty"`
	Name     string   `json:"name,omitempty"`
	Picture  string   `json:"picture,omitempty"`
	Email    string   `json:"email,omitempty"`
}

// LoginParams are optional values for the authorization URL.
type LoginParams struct {
	State string // generated when empty
	Nonce string // omitted when empty
}

// LineClient wraps golang.org/x/oauth2 for the LINE Login v2.1 code flow.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
//  1. BuildLoginURL: the browser is redirected to LINE with our client id.
//  2. The user approves; LINE redirects back to CallbackURL with a "code".
//  3. ExchangeCode: server-to-server POST trading the code (plus our
//     client secret) for an access token. The secret never reaches the browser.
//  4. FetchProfile: GET /v2/profile with the access token.
//  5. BuildFrontendRedirect: hand the browser back to the frontend with our
//     own identity token (or an error) in the query string.
//
// Every network operation returns a Result and never panics on transport
// failure; callers treat each call as independently failable.
type LineClient struct {
	config      *oauth2.Config
	apiBaseURL  string
	frontendURL string
	httpClient  *http.Client
}

// NewLineClient validates cfg and builds the client.
func NewLineClient(cfg LineConfig) (*LineClient, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("line: client id and secret are required")
	}
	if cfg.CallbackURL == "" {
		return nil, errors.New("line: callback URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.FrontendRedirectURL); err != nil {
		return nil, fmt.Errorf("line: invalid frontend redirect URL: %w", err)
	}

	apiBase := strings.TrimSuffix(cfg.APIBaseURL, "/")
	if apiBase == "" {
		apiBase = lineDefaultAPIURL
	}
	authorizeURL := cfg.AuthorizeURL
	if authorizeURL == "" {
		authorizeURL = lineAuthorizeURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &LineClient{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"profile", "openid"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  authorizeURL,
				TokenURL: apiBase + "/oauth2/v2.1/token",
				// LINE expects client_id and client_secret in the form body.
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBaseURL:  apiBase,
		frontendURL: cfg.FrontendRedirectURL,
		httpClient:  httpClient,
	}, nil
}

// BuildLoginURL returns the LINE authorization URL.
//
// The state is not stored server-side and the callback does not compare it;
// it is forwarded only so LINE's consent flow has one.
func (c *LineClient) BuildLoginURL(params LoginParams) result.Result[string] {
	state := params.State
	if state == "" {
		s, err := RandomString(stateLength)
		if err != nil {
			return result.Err[string](fmt.Errorf("line: generating state: %w", err))
		}
		state = s
	}

	var opts []oauth2.AuthCodeOption
	if params.Nonce != "" {
		opts = append(opts, oauth2.SetAuthURLParam("nonce", params.Nonce))
	}
	return result.Ok(c.config.AuthCodeURL(state, opts...))
}

// ExchangeCode trades an authorization code for a token bundle.
func (c *LineClient) ExchangeCode(ctx context.Context, code string) result.Result[TokenBundle] {
	tok, err := c.config.Exchange(c.withHTTPClient(ctx), code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return result.Err[TokenBundle](&ProviderError{
				Kind:       ErrExchangeFailed,
				StatusCode: re.Response.StatusCode,
				Body:       truncate(string(re.Body)),
			})
		}
		return result.Err[TokenBundle](&ProviderError{Kind: ErrExchangeFailed, Cause: err})
	}

	bundle := TokenBundle{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    tok.ExpiresIn,
		Expiry:       tok.Expiry,
	}
	if s, ok := tok.Extra("scope").(string); ok {
		bundle.Scope = s
	}
	if s, ok := tok.Extra("id_token").(string); ok {
		bundle.IDToken = s
	}
	return result.Ok(bundle)
}

// FetchProfile reads the LINE profile of the access token's owner.
func (c *LineClient) FetchProfile(ctx context.Context, accessToken string) result.Result[LineProfile] {
	ctx = c.withHTTPClient(ctx)

	// config.Client adds "Authorization: Bearer <token>" to every request.
	client := c.config.Client(ctx, &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+"/v2/profile", nil)
	if err != nil {
		return result.Err[LineProfile](&ProviderError{Kind: ErrProfileFetchFailed, Cause: err})
	}

	resp, err := client.Do(req)
	if err != nil {
		return result.Err[LineProfile](&ProviderError{Kind: ErrProfileFetchFailed, Cause: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result.Err[LineProfile](&ProviderError{
			Kind:       ErrProfileFetchFailed,
			StatusCode: resp.StatusCode,
			Body:       readErrorBody(resp.Body),
		})
	}

	var profile LineProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return result.Err[LineProfile](&ProviderError{Kind: ErrProfileFetchFailed, Cause: fmt.Errorf("decoding profile: %w", err)})
	}
	if profile.UserID == "" {
		return result.Err[LineProfile](&ProviderError{Kind: ErrProfileFetchFailed, Cause: errors.New("profile has no userId")})
	}
	return result.Ok(profile)
}

// VerifyIDToken asks LINE to validate an OpenID Connect id_token.
// nonce is forwarded when non-empty so LINE checks it too.
func (c *LineClient) VerifyIDToken(ctx context.Context, idToken, nonce string) result.Result[IDTokenClaims] {
	form := url.Values{
		"id_token":  {idToken},
		"client_id": {c.config.ClientID},
	}
	if nonce != "" {
		form.Set("nonce", nonce)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBaseURL+"/oauth2/v2.1/verify", strings.NewReader(form.Encode()))
	if err != nil {
		return result.Err[IDTokenClaims](&ProviderError{Kind: ErrIDTokenVerifyFailed, Cause: err})
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return result.Err[IDTokenClaims](&ProviderError{Kind: ErrIDTokenVerifyFailed, Cause: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result.Err[IDTokenClaims](&ProviderError{
			Kind:       ErrIDTokenVerifyFailed,
			StatusCode: resp.StatusCode,
			Body:       readErrorBody(resp.Body),
		})
	}

	var claims IDTokenClaims
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return result.Err[IDTokenClaims](&ProviderError{Kind: ErrIDTokenVerifyFailed, Cause: fmt.Errorf("decoding claims: %w", err)})
	}
	return result.Ok(claims)
}

// BuildFrontendRedirect appends token and/or error to the frontend URL.
// Empty values are omitted. Spaces are encoded as %20.
func (c *LineClient) BuildFrontendRedirect(token, errMsg string) string {
	u, err := url.Parse(c.frontendURL)
	if err != nil {
		// NewLineClient validated the URL; this cannot happen.
		return c.frontendURL
	}

	q := u.Query()
	if token != "" {
		q.Set("token", token)
	}
	if errMsg != "" {
		q.Set("error", errMsg)
	}
	u.RawQuery = strings.ReplaceAll(q.Encode(), "+", "%20")
	return u.String()
}

// withHTTPClient makes oauth2 use our client for the token endpoint and as
// the transport under config.Client.
func (c *LineClient) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(b))
}

func truncate(s string) string {
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	return strings.TrimSpace(s)
}
