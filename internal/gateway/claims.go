package gateway

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fleetrent/fleetrent/internal/authz"
	"github.com/fleetrent/fleetrent/internal/shared"
)

// Claims is the session-token payload the gateway consumes. The identity
// service issues the token; the gateway only verifies the HMAC signature and
// maps the claims onto the authorization core's principal shape.
type Claims struct {
	Role             string `json:"role"`
	CompanyID        string `json:"companyId,omitempty"`
	LinkedInvestorID string `json:"linkedInvestorId,omitempty"`
	jwt.RegisteredClaims
}

// ParseBearerToken verifies a bearer token and builds the request principal.
func ParseBearerToken(tokenString string, secret []byte) (authz.Principal, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("gateway: unexpected signing method %s", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return authz.Principal{}, shared.ErrUnauthenticated
	}
	if claims.Subject == "" {
		return authz.Principal{}, shared.ErrUnauthenticated
	}
	role, err := authz.ParseRole(claims.Role)
	if err != nil {
		return authz.Principal{}, shared.ErrUnauthenticated
	}
	return authz.Principal{
		ID:               claims.Subject,
		Role:             role,
		CompanyID:        claims.CompanyID,
		LinkedInvestorID: claims.LinkedInvestorID,
	}, nil
}

// SignToken issues a token for the given claims. Exposed for the identity
// layer and tests; the gateway itself never calls it on a request path.
func SignToken(claims Claims, secret []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
