package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lovenotes/anniversary/pkg/middleware"
)

const adminSubject = "admin"

// AdminClaims are carried by an admin session token.
type AdminClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// GenerateAdminToken creates a signed HS256 token for a new admin session.
// It returns the token and its expiry.
func GenerateAdminToken(secret []byte, sessionID string, ttl time.Duration) (string, time.Time, error) {
	if len(secret) == 0 {
		return "", time.Time{}, errors.New("empty signing secret")
	}
	now := time.Now()
	exp := now.Add(ttl)
	claims := AdminClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := jt.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, exp, nil
}

// Verifier checks admin tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret []byte) *Verifier {
	return &Verifier{
		secret: secret,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()),
	}
}

// Parse validates raw and returns its claims.
func (v *Verifier) Parse(raw string) (*AdminClaims, error) {
	var claims AdminClaims
	_, err := v.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims.SessionID == "" {
		return nil, errors.New("token has no session id")
	}
	return &claims, nil
}

// Verify implements middleware.Verifier.
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims, err := v.Parse(raw)
	if err != nil {
		return nil, err
	}
	return verifiedToken{claims: claims}, nil
}

type verifiedToken struct {
	claims *AdminClaims
}

// Claims decodes the token claims into v (a struct or map pointer).
func (t verifiedToken) Claims(v interface{}) error {
	b, err := json.Marshal(t.claims)
	if err != nil {
		return fmt.Errorf("encode claims: %w", err)
	}
	return json.Unmarshal(b, v)
}
