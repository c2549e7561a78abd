package governance

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"donation-chain/marketplace-ledger/ledger-backend/internal/ledger"
)

// Claims is the JWT payload carried by governance callers on the HTTP
// surface. The subject is the calling account; Root and Councillors mirror
// the Origin fields.
type Claims struct {
	Root        bool     `json:"root,omitempty"`
	Councillors []string `json:"councillors,omitempty"`
	jwt.RegisteredClaims
}

// ParseOrigin validates a signed governance token and converts its claims
// into an Origin.
func ParseOrigin(secret []byte, tokenString string) (Origin, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return Origin{}, fmt.Errorf("invalid governance token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Origin{}, fmt.Errorf("invalid governance token claims")
	}
	origin := Origin{
		Caller: ledger.AccountID(claims.Subject),
		Root:   claims.Root,
	}
	for _, c := range claims.Councillors {
		origin.Councillors = append(origin.Councillors, ledger.AccountID(c))
	}
	return origin, nil
}

// IssueToken signs a governance token for origin, valid for ttl. Used by
// operator tooling and tests.
func IssueToken(secret []byte, origin Origin, ttl time.Duration) (string, error) {
	claims := Claims{
		Root: origin.Root,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(origin.Caller),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	for _, c := range origin.Councillors {
		claims.Councillors = append(claims.Councillors, string(c))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing governance token: %w", err)
	}
	return signed, nil
}
