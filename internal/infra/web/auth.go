package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"visitgate/internal/domain/model"
	"visitgate/internal/infra/logging"
)

type identityKey struct{}

// Claims is the tenant-scoped access token payload.
type Claims struct {
	CompanyID int64  `json:"cid"`
	UserID    string `json:"uid"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken mints an HS256 access token for a tenant user.
func IssueToken(secret []byte, companyID int64, userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		CompanyID: companyID,
		UserID:    userID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{"visitgate-api"},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken validates a bearer token and returns its claims.
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*Claims); ok && tok.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// Identity extracts the authenticated tenant identity from the context.
func Identity(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(model.Identity)
	return id, ok
}

// withIdentity is the test seam for injecting an identity without a token.
func withIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// requireAuth gates tenant routes behind a valid bearer token and stamps the
// identity into the request context and log fields.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing authorization header"})
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "malformed authorization header"})
			return
		}
		claims, err := ParseToken(s.jwtSecret, parts[1])
		if err != nil || claims.CompanyID <= 0 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return
		}

		id := model.Identity{CompanyID: claims.CompanyID, UserID: claims.UserID, Role: claims.Role}
		ctx := withIdentity(r.Context(), id)
		ctx = logging.WithCompanyID(ctx, claims.CompanyID)
		ctx = logging.WithUserID(ctx, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
