package middleware

import (
	"errors"
	"strconv"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Abhirsi/HawalaSend-backend/internal/auth"
	apperrors "github.com/Abhirsi/HawalaSend-backend/internal/errors"
	"github.com/Abhirsi/HawalaSend-backend/internal/model"
	"github.com/Abhirsi/HawalaSend-backend/internal/service"
)

const (
	claimsContextKey = "auth_claims"
	userContextKey   = "auth_user"

	// RefreshTokenHeader carries the advisory replacement token handed to
	// clients whose session token is close to expiry.
	RefreshTokenHeader = "X-Refresh-Token"
)

// SessionGuard gates protected routes: rate ceiling, bearer token
// verification, user resolution, and near-expiry refresh.
type SessionGuard struct {
	tokens        *auth.JWTService
	authService   service.AuthService
	tokenTTL      time.Duration
	refreshWindow time.Duration
	limitRPS      float64
	limitBurst    int
}

// NewSessionGuard creates the guard with process-wide settings injected at
// startup.
func NewSessionGuard(
	tokens *auth.JWTService,
	authService service.AuthService,
	tokenTTL, refreshWindow time.Duration,
	limitRPS float64,
	limitBurst int,
) *SessionGuard {
	return &SessionGuard{
		tokens:        tokens,
		authService:   authService,
		tokenTTL:      tokenTTL,
		refreshWindow: refreshWindow,
		limitRPS:      limitRPS,
		limitBurst:    limitBurst,
	}
}

// RateLimit applies a per-source-address request ceiling. The limiter state
// is process-local and best-effort.
func (g *SessionGuard) RateLimit() echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:  rate.Limit(g.limitRPS),
		Burst: g.limitBurst,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return writeError(c, &apperrors.RateLimitError{RetryAfterSeconds: 1})
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return writeError(c, apperrors.ErrInternal)
		},
	})
}

// Authenticate extracts and verifies the bearer token, placing the claim set
// in the request context. Verification is delegated to the token service, so
// the signing algorithm stays pinned regardless of what the token claims.
func (g *SessionGuard) Authenticate() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsContextKey,
		TokenLookup: "header:Authorization:Bearer ",
		ParseTokenFunc: func(c echo.Context, tokenString string) (interface{}, error) {
			return g.tokens.Verify(tokenString)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			switch {
			case errors.Is(err, apperrors.ErrTokenExpired):
				return writeError(c, apperrors.ErrTokenExpired)
			case errors.Is(err, apperrors.ErrMalformedToken):
				return writeError(c, apperrors.ErrMalformedToken)
			default:
				// Extraction failed: no Authorization header or wrong scheme.
				return writeError(c, apperrors.ErrMissingToken)
			}
		},
	})
}

// ResolveUser maps the verified claims to an active user record, attaches it
// to the request context, and emits a replacement token when the current one
// is inside the refresh window. The original token remains valid until its
// own expiry.
func (g *SessionGuard) ResolveUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(claimsContextKey).(*auth.Claims)
			if !ok {
				return writeError(c, apperrors.ErrMissingToken)
			}

			user, err := g.authService.ResolveActiveUser(c.Request().Context(), claims.UserID)
			if err != nil {
				return writeError(c, err)
			}
			c.Set(userContextKey, user)

			if claims.NeedsRefresh(g.refreshWindow) {
				if refreshed, err := g.tokens.Issue(user.ID, user.Role, g.tokenTTL); err == nil {
					c.Response().Header().Set(RefreshTokenHeader, refreshed)
				}
			}

			return next(c)
		}
	}
}

// Chain returns the full guard: rate ceiling, token verification, user
// resolution.
func (g *SessionGuard) Chain() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{g.RateLimit(), g.Authenticate(), g.ResolveUser()}
}

// CurrentUser returns the user resolved by the guard for this request.
func CurrentUser(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(userContextKey).(*model.User)
	return user, ok
}

// writeError renders a domain error as the standard error payload.
func writeError(c echo.Context, err error) error {
	he := apperrors.MapErrorToHTTP(err)
	if he.RetryAfterSeconds > 0 {
		c.Response().Header().Set("Retry-After", strconv.Itoa(he.RetryAfterSeconds))
	}
	return c.JSON(he.StatusCode, he.ToErrorResponse())
}
