package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/RustMunkey/quickdash-sub005/core"
)

const (
	defaultTokenTTL    = time.Hour
	defaultRenewBefore = 2 * time.Minute
)

// RemoteScheme delegates verification to the provider's verification
// API. An OAuth2 client-credentials token is obtained with Basic auth
// against TokenURL and cached per credential until shortly before it
// expires; the request material is then POSTed to VerifyURL and the
// provider's verdict decides the outcome.
//
// The client id lives in the credential metadata under "client_id"; the
// credential secret is the client secret.
type RemoteScheme struct {
	TokenURL     string
	VerifyURL    string
	HTTPClient   *http.Client
	RenewBefore  time.Duration
	Now          func() time.Time
	BuildPayload func(req core.InboundRequest, cred core.Credential) (map[string]any, error)
	Verdict      func(response map[string]any) bool

	mu     sync.Mutex
	tokens map[string]cachedToken
}

type cachedToken struct {
	accessToken string
	expiresAt   time.Time
}

func (s *RemoteScheme) Verify(ctx context.Context, req core.InboundRequest, cred core.Credential) error {
	if s == nil {
		return fmt.Errorf("verify: remote scheme is nil")
	}
	if s.BuildPayload == nil || s.Verdict == nil {
		return fmt.Errorf("verify: remote scheme requires payload builder and verdict")
	}
	if strings.TrimSpace(cred.Secret) == "" {
		return ErrMissingSecret
	}

	payload, err := s.BuildPayload(req, cred)
	if err != nil {
		return err
	}

	token, err := s.token(ctx, cred)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("verify: marshal verification payload: %w", err)
	}
	verifyReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.VerifyURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("verify: build verification request: %w", err)
	}
	verifyReq.Header.Set("Content-Type", "application/json")
	verifyReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient().Do(verifyReq)
	if err != nil {
		return fmt.Errorf("verify: call verification endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: verification endpoint returned %d", ErrInvalidSignature, resp.StatusCode)
	}
	var verdict map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&verdict); err != nil {
		return fmt.Errorf("verify: decode verification response: %w", err)
	}
	if !s.Verdict(verdict) {
		return ErrInvalidSignature
	}
	return nil
}

func (s *RemoteScheme) token(ctx context.Context, cred core.Credential) (string, error) {
	clientID := strings.TrimSpace(cred.Metadata["client_id"])
	if clientID == "" {
		return "", fmt.Errorf("%w: client_id metadata", ErrMissingSecret)
	}
	cacheKey := cred.TenantID + "|" + cred.ProviderID + "|" + clientID

	now := s.clock()
	renewBefore := s.RenewBefore
	if renewBefore <= 0 {
		renewBefore = defaultRenewBefore
	}

	s.mu.Lock()
	if cached, ok := s.tokens[cacheKey]; ok && cached.expiresAt.After(now.Add(renewBefore)) {
		s.mu.Unlock()
		return cached.accessToken, nil
	}
	s.mu.Unlock()

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	tokenReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("verify: build token request: %w", err)
	}
	tokenReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	tokenReq.SetBasicAuth(clientID, strings.TrimSpace(cred.Secret))

	resp, err := s.httpClient().Do(tokenReq)
	if err != nil {
		return "", fmt.Errorf("verify: call token endpoint: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("verify: token endpoint returned %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("verify: decode token response: %w", err)
	}
	if strings.TrimSpace(tokenResp.AccessToken) == "" {
		return "", fmt.Errorf("verify: token endpoint returned empty access token")
	}

	ttl := time.Duration(tokenResp.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	s.mu.Lock()
	if s.tokens == nil {
		s.tokens = map[string]cachedToken{}
	}
	s.tokens[cacheKey] = cachedToken{
		accessToken: tokenResp.AccessToken,
		expiresAt:   now.Add(ttl),
	}
	s.mu.Unlock()

	return tokenResp.AccessToken, nil
}

func (s *RemoteScheme) httpClient() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return http.DefaultClient
}

func (s *RemoteScheme) clock() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

var _ core.SignatureScheme = (*RemoteScheme)(nil)
