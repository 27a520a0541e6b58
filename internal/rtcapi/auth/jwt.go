// Package auth issues and verifies the signed JWT credentials that bind
// an agent UID to its assigned issue, following the HS256 issuer/verifier
// split used by services/otc-gateway/auth.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCredential is returned when a credential fails signature or
// claim validation.
var ErrInvalidCredential = errors.New("auth: invalid credential")

// Claims binds an agent's stable identifier to the issue it was invited
// into (§3 "Agent", "credential (opaque secret)").
type Claims struct {
	jwt.RegisteredClaims
	AgentUID string `json:"agent_uid"`
	IssueID  string `json:"issue_id"`
}

// Issuer mints signed credentials for a roster using a shared HS256
// secret (opaque from the Action API's point of view).
type Issuer struct {
	secret []byte
	issuer string
}

// NewIssuer constructs an Issuer bound to the given signing secret.
func NewIssuer(secret []byte, issuerName string) *Issuer {
	return &Issuer{secret: secret, issuer: issuerName}
}

// Issue mints a credential for the given agent/issue pair.
func (i *Issuer) Issue(agentUID, issueID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   agentUID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		AgentUID: agentUID,
		IssueID:  issueID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verifier validates credentials minted by the matching Issuer.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier constructs a Verifier bound to the given signing secret.
func NewVerifier(secret []byte, issuerName string) *Verifier {
	return &Verifier{secret: secret, issuer: issuerName}
}

// Verify parses and validates a credential, returning its bound claims.
func (v *Verifier) Verify(credential string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(credential, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method", ErrInvalidCredential)
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(v.issuer))
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidCredential
	}
	return claims, nil
}
