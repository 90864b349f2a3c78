package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/candle/internal/domain/model"
)

// DefaultTokenInfoURL is Google's ID token introspection endpoint.
const DefaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleProvider verifies Google ID tokens through the tokeninfo endpoint
// and checks they were issued for clientID.
type GoogleProvider struct {
	clientID   string
	endpoint   string
	httpClient *http.Client
}

// GoogleOption configures a GoogleProvider.
type GoogleOption func(*GoogleProvider)

// WithEndpoint overrides the tokeninfo URL.
func WithEndpoint(endpoint string) GoogleOption {
	return func(p *GoogleProvider) {
		if endpoint != "" {
			p.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) GoogleOption {
	return func(p *GoogleProvider) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// NewGoogleProvider creates a provider accepting tokens minted for clientID.
func NewGoogleProvider(clientID string, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		clientID: clientID,
		endpoint: DefaultTokenInfoURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type tokenInfo struct {
	Aud     string `json:"aud"`
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (p *GoogleProvider) Verify(ctx context.Context, credential string) (model.User, error) {
	if strings.TrimSpace(credential) == "" {
		return model.User{}, ErrInvalidCredential
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?id_token="+url.QueryEscape(credential), nil)
	if err != nil {
		return model.User{}, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return model.User{}, fmt.Errorf("verify token: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return model.User{}, ErrInvalidCredential
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return model.User{}, fmt.Errorf("verify token status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var info tokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return model.User{}, fmt.Errorf("decode tokeninfo: %w", err)
	}
	if info.Aud != p.clientID || info.Sub == "" {
		return model.User{}, ErrInvalidCredential
	}

	name := info.Name
	if name == "" {
		name = info.Email
	}
	return model.User{ID: info.Sub, Email: info.Email, Name: name, Picture: info.Picture}, nil
}
