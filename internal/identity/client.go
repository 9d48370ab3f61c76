package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aihelper/aihelper-cli/internal/buildinfo"

	"go.uber.org/zap"
)

// Error is a rejection reported by the identity provider.
type Error struct {
	Status int
	Code   string
}

func (e *Error) Error() string {
	code := strings.TrimSpace(e.Code)
	if code == "" {
		code = "request failed"
	}
	return fmt.Sprintf("identity: %s (status=%d)", code, e.Status)
}

// Rejected means the provider refused the credentials, as opposed to being
// unavailable.
func (e *Error) Rejected() bool {
	return e.Status >= 400 && e.Status < 500
}

// Account is an established identity session.
type Account struct {
	IDToken      string
	RefreshToken string
	UserID       string
	ExpiresAt    time.Time
}

type Client struct {
	IdentityURL string
	TokenURL    string
	APIKey      string
	HTTP        *http.Client
	Logger      *zap.Logger
}

// SignInWithCustomToken exchanges a one-time initialization token for a session.
func (c Client) SignInWithCustomToken(ctx context.Context, token string) (Account, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Account{}, errors.New("missing custom token")
	}
	var out accountResponse
	err := c.postJSON(ctx, c.identityBase(), "/v1/accounts:signInWithCustomToken", map[string]any{
		"token":             token,
		"returnSecureToken": true,
	}, &out)
	if err != nil {
		return Account{}, err
	}
	return out.account()
}

// SignUpAnonymous creates an anonymous session.
func (c Client) SignUpAnonymous(ctx context.Context) (Account, error) {
	var out accountResponse
	err := c.postJSON(ctx, c.identityBase(), "/v1/accounts:signUp", map[string]any{
		"returnSecureToken": true,
	}, &out)
	if err != nil {
		return Account{}, err
	}
	return out.account()
}

// Refresh exchanges a refresh token for a new id token.
func (c Client) Refresh(ctx context.Context, refreshToken string) (Account, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return Account{}, errors.New("missing refresh token")
	}
	endpoint, err := c.endpoint(c.tokenBase(), "/v1/token")
	if err != nil {
		return Account{}, err
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Account{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
		UserID       string `json:"user_id"`
	}
	if err := c.do(req, &out); err != nil {
		return Account{}, err
	}
	next := strings.TrimSpace(out.RefreshToken)
	if next == "" {
		next = refreshToken
	}
	return accountResponse{
		IDToken:      out.IDToken,
		RefreshToken: next,
		ExpiresIn:    out.ExpiresIn,
		LocalID:      out.UserID,
	}.account()
}

type accountResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
}

func (r accountResponse) account() (Account, error) {
	tok := strings.TrimSpace(r.IDToken)
	if tok == "" {
		return Account{}, errors.New("identity: response carried no id token")
	}
	acct := Account{
		IDToken:      tok,
		RefreshToken: strings.TrimSpace(r.RefreshToken),
		UserID:       strings.TrimSpace(r.LocalID),
	}
	if n, err := parseExpiresInSeconds(r.ExpiresIn); err == nil && n > 0 {
		acct.ExpiresAt = time.Now().UTC().Add(time.Duration(n) * time.Second)
	} else if cl, err := ParseClaims(tok); err == nil && !cl.ExpiresAt.IsZero() {
		acct.ExpiresAt = cl.ExpiresAt
	}
	return acct, nil
}

func parseExpiresInSeconds(v string) (int64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, errors.New("missing expiresIn")
	}
	return strconv.ParseInt(v, 10, 64)
}

func (c Client) identityBase() string {
	if s := strings.TrimSpace(c.IdentityURL); s != "" {
		return s
	}
	return DefaultIdentityURL
}

func (c Client) tokenBase() string {
	if s := strings.TrimSpace(c.TokenURL); s != "" {
		return s
	}
	return DefaultTokenURL
}

func (c Client) endpoint(base, path string) (string, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return "", errors.New("identity: missing api key")
	}
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(base), "/"))
	if err != nil {
		return "", fmt.Errorf("identity: invalid url: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	q := u.Query()
	q.Set("key", c.APIKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c Client) postJSON(ctx context.Context, base, path string, body any, out any) error {
	endpoint, err := c.endpoint(base, path)
	if err != nil {
		return err
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c Client) do(req *http.Request, out any) error {
	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if c.Logger != nil {
		c.Logger.Debug("identity request",
			zap.String("module", "identity"),
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(b, &apiErr)
		return &Error{Status: resp.StatusCode, Code: strings.TrimSpace(apiErr.Error.Message)}
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("identity: decode response: %w", err)
	}
	return nil
}
