package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/soaringjerry/growpoint/internal/services"
)

type authCtxKey int

const authKey authCtxKey = 7

type Claims struct {
	EmployeeID int    `json:"eid"`
	Name       string `json:"name"`
	Department string `json:"dept"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// Auth signs and verifies session tokens with a single HS256 secret.
type Auth struct {
	secret []byte
	now    func() time.Time
}

func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret), now: time.Now}
}

// Sign issues a token for p. Its signature matches services.TokenSigner.
func (a *Auth) Sign(p services.Principal, ttl time.Duration) (string, error) {
	now := a.now()
	claims := Claims{
		EmployeeID: p.EmployeeID,
		Name:       p.Name,
		Department: p.Department,
		Role:       string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(p.EmployeeID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *Auth) Parse(tok string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tok, &Claims{}, func(*jwt.Token) (interface{}, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

func (c *Claims) Principal() services.Principal {
	return services.Principal{
		EmployeeID: c.EmployeeID,
		Name:       c.Name,
		Department: c.Department,
		Role:       services.ParseRole(c.Role),
	}
}

// WithAuth attaches the caller to the context if a valid bearer token is present.
func (a *Auth) WithAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if strings.HasPrefix(h, "Bearer ") {
			tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
			if c, err := a.Parse(tok); err == nil {
				ctx := context.WithValue(r.Context(), authKey, c.Principal())
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects callers whose role is not listed. It implies RequireAuth.
func RequireRole(roles ...services.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := PrincipalFromContext(r.Context())
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "forbidden", http.StatusForbidden)
		}))
	}
}

func PrincipalFromContext(ctx context.Context) (services.Principal, bool) {
	p, ok := ctx.Value(authKey).(services.Principal)
	return p, ok
}

// ContextWithPrincipal is used by tests and internal callers that already
// know who the caller is.
func ContextWithPrincipal(ctx context.Context, p services.Principal) context.Context {
	return context.WithValue(ctx, authKey, p)
}
