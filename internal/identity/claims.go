package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the display fields of an id token. Signatures are not verified;
// the values are only used for the local UI.
type Claims struct {
	Subject   string
	Email     string
	Name      string
	Picture   string
	Provider  string
	ExpiresAt time.Time
}

func (c Claims) Anonymous() bool {
	return c.Provider == "anonymous"
}

func ParseClaims(idToken string) (Claims, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return Claims{}, errors.New("missing id token")
	}
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, mc); err != nil {
		return Claims{}, err
	}

	var c Claims
	c.Subject, _ = mc.GetSubject()
	if c.Subject == "" {
		c.Subject = claimString(mc, "user_id")
	}
	c.Email = claimString(mc, "email")
	c.Name = claimString(mc, "name")
	c.Picture = claimString(mc, "picture")
	if fb, ok := mc["firebase"].(map[string]any); ok {
		c.Provider, _ = fb["sign_in_provider"].(string)
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time.UTC()
	}
	return c, nil
}

func claimString(mc jwt.MapClaims, key string) string {
	s, _ := mc[key].(string)
	return strings.TrimSpace(s)
}
