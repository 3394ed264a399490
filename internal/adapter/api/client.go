package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"recipebook/internal/domain"
)

// MatchTypePartial is the only match mode the frontend requests.
const MatchTypePartial = "partial"

const maxErrorBody = 64 << 10

// StatusError is a non-2xx reply from the API.
type StatusError struct {
	Status int
	Body   string
}

// Message returns the server's error text. JSON bodies of the form
// {"error": "..."} are unwrapped; anything else is returned verbatim.
func (e *StatusError) Message() string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal([]byte(e.Body), &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	if e.Body == "" {
		return http.StatusText(e.Status)
	}
	return e.Body
}

func (e *StatusError) Error() string { return e.Message() }

// Is reports a 404 reply as domain.ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == domain.ErrNotFound && e.Status == http.StatusNotFound
}

// Client talks JSON to the recipe API. A bearer token, when given, is
// attached through an oauth2 transport.
type Client struct {
	endpoints Endpoints
	http      *http.Client
}

// New creates a Client for baseURL. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoints: NewEndpoints(baseURL), http: httpClient}
}

// Endpoints exposes the endpoint table the client uses.
func (c *Client) Endpoints() Endpoints { return c.endpoints }

var (
	_ domain.AuthAPI    = (*Client)(nil)
	_ domain.CatalogAPI = (*Client)(nil)
	_ domain.AccountAPI = (*Client)(nil)
)

func (c *Client) clientFor(token string) *http.Client {
	if token == "" {
		return c.http
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.http.Transport,
		},
		CheckRedirect: c.http.CheckRedirect,
		Jar:           c.http.Jar,
		Timeout:       c.http.Timeout,
	}
}

func (c *Client) do(ctx context.Context, token, method, url string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.clientFor(token).Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

func withQuery(u, rawQuery string) string {
	if rawQuery == "" {
		return u
	}
	return u + "?" + rawQuery
}

// --- AuthAPI ---

// Login posts credentials to the login endpoint.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	if err := c.do(ctx, "", http.MethodPost, c.endpoints.Login(), creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register posts a new account to the registration endpoint.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	if err := c.do(ctx, "", http.MethodPost, c.endpoints.Register(), reg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
