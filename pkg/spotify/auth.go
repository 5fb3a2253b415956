package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultTokenURL = "https://accounts.spotify.com/api/token"

// Token is the result of the client-credentials flow. Tokens expire after an
// hour.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (t Token) Lifetime() time.Duration { return time.Duration(t.ExpiresIn) * time.Second }

// Authenticator exchanges client credentials for an access token.
type Authenticator struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
}

func (a Authenticator) Token(ctx context.Context) (Token, error) {
	if a.ClientID == "" || a.ClientSecret == "" {
		return Token{}, fmt.Errorf("spotify: client id and secret are required")
	}
	tokenURL := a.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	client := a.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", a.ClientID)
	form.Set("client_secret", a.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("spotify token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return Token{}, fmt.Errorf("spotify token: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var tok Token
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return Token{}, fmt.Errorf("spotify token: decode: %w", err)
	}
	if tok.AccessToken == "" {
		return Token{}, fmt.Errorf("spotify token: empty access_token")
	}
	return tok, nil
}
