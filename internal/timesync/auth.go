package timesync

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// tokenFromJWT wraps a TimeSync JWT in an oauth2.Token whose expiry is taken
// from the payload's exp claim, given in milliseconds.
func tokenFromJWT(raw string) (*oauth2.Token, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed token: want 3 segments, got %d", len(parts))
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, fmt.Errorf("decoding token payload: %w", err)
	}

	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("parsing token payload: %w", err)
	}

	tok := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	if claims.Exp > 0 {
		tok.Expiry = time.UnixMilli(claims.Exp)
	}
	return tok, nil
}

// tokenExpired reports whether tok is missing or past its expiry.
func tokenExpired(tok *oauth2.Token) bool {
	return tok == nil || !tok.Valid()
}
