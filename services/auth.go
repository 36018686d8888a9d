package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrAuthFailed signals that the token handshake failed at one of its legs.
// No job may be dispatched after this error; retrying is the caller's call.
var ErrAuthFailed = errors.New("authentication failed")

const (
	authUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/80.0.3987.149 Safari/537.36"
	authSharedKey  = "bcd151073c03b352e1ef2fd66c32209da9ca0afa"
	authAppName    = "pc_html5"
	authAppVersion = "0.0.1"
	authDevice     = "pc"
)

// Credentials are the optional member login credentials. Empty credentials
// run the handshake in no-login mode.
type Credentials struct {
	Email    string
	Password string
}

// AuthClient performs the two-step token handshake required before any
// stream may be fetched.
type AuthClient struct {
	baseURL string
	client  *http.Client
}

// NewAuthClient creates an auth client against the given service base URL.
func NewAuthClient(baseURL string) *AuthClient {
	return &AuthClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Authenticate runs the handshake and returns the stream auth token.
// With credentials present it first obtains a member session id, which is
// carried into the verification leg. No retry happens here.
func (a *AuthClient) Authenticate(ctx context.Context, creds Credentials) (string, error) {
	sessionID := ""
	if creds.Email != "" || creds.Password != "" {
		sid, err := a.login(ctx, creds)
		if err != nil {
			return "", err
		}
		sessionID = sid
	}

	token, keyLength, keyOffset, err := a.challenge(ctx)
	if err != nil {
		return "", err
	}

	partialKey, err := derivePartialKey(authSharedKey, keyOffset, keyLength)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	if err := a.verify(ctx, token, partialKey, sessionID); err != nil {
		return "", err
	}
	return token, nil
}

// login obtains a member session id ahead of the handshake.
func (a *AuthClient) login(ctx context.Context, creds Credentials) (string, error) {
	form := url.Values{}
	form.Set("mail", creds.Email)
	form.Set("pass", creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/v4/api/member/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", authUserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: login request: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: login status %d", ErrAuthFailed, resp.StatusCode)
	}

	var body struct {
		Session string `json:"radiko_session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Session == "" {
		return "", fmt.Errorf("%w: login response missing session", ErrAuthFailed)
	}
	return body.Session, nil
}

// challenge performs the first handshake leg and returns the opaque token
// plus the key window the server selected.
func (a *AuthClient) challenge(ctx context.Context) (token string, keyLength, keyOffset int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/v2/api/auth1", nil)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	req.Header.Set("User-Agent", authUserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("x-radiko-user", "dummy_user")
	req.Header.Set("x-radiko-app", authAppName)
	req.Header.Set("x-radiko-app-version", authAppVersion)
	req.Header.Set("x-radiko-device", authDevice)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: challenge request: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	token = resp.Header.Get("X-Radiko-AUTHTOKEN")
	lengthStr := resp.Header.Get("X-Radiko-KeyLength")
	offsetStr := resp.Header.Get("X-Radiko-KeyOffset")
	if token == "" || lengthStr == "" || offsetStr == "" {
		return "", 0, 0, fmt.Errorf("%w: challenge response missing headers", ErrAuthFailed)
	}

	keyLength, err = strconv.Atoi(lengthStr)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: bad key length %q", ErrAuthFailed, lengthStr)
	}
	keyOffset, err = strconv.Atoi(offsetStr)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: bad key offset %q", ErrAuthFailed, offsetStr)
	}
	return token, keyLength, keyOffset, nil
}

// verify performs the second handshake leg; HTTP 200 confirms the token.
func (a *AuthClient) verify(ctx context.Context, token, partialKey, sessionID string) error {
	verifyURL := a.baseURL + "/v2/api/auth2"
	if sessionID != "" {
		verifyURL += "?radiko_session=" + url.QueryEscape(sessionID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, verifyURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	req.Header.Set("User-Agent", authUserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("x-radiko-user", "dummy_user")
	req.Header.Set("X-RADIKO-AUTHTOKEN", token)
	req.Header.Set("x-radiko-partialkey", partialKey)
	req.Header.Set("X-Radiko-App", authAppName)
	req.Header.Set("X-Radiko-App-Version", authAppVersion)
	req.Header.Set("x-radiko-device", authDevice)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: verify request: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: verify status %d", ErrAuthFailed, resp.StatusCode)
	}
	return nil
}

// derivePartialKey extracts secret[offset:offset+length] and base64-encodes
// the raw bytes. Deterministic for a given (secret, offset, length).
func derivePartialKey(secret string, offset, length int) (string, error) {
	if offset < 0 || length < 0 || offset+length > len(secret) {
		return "", fmt.Errorf("key window [%d,%d) outside secret", offset, offset+length)
	}
	return base64.StdEncoding.EncodeToString([]byte(secret[offset : offset+length])), nil
}
