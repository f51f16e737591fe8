package webserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"go.uber.org/zap"
)

const (
	sessionUserKey  = "user_id"
	claimsKey       = "jwt_claims"
	currentUserKey  = "current_user"
	sessionLifetime = 30 * 24 * 3600
)

// ErrInvalidToken rejects a request whose bearer token is present but fails
// verification. The request stops there even when a session cookie is set.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims carried by admin api tokens. Subject holds the user id.
type Claims struct {
	jwt.RegisteredClaims
	Admin bool `json:"admin"`
}

// IssueToken signs an HS256 token for the user.
func IssueToken(secret string, user *domain.User, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			Issuer:    "vfcatalog",
		},
		Admin: user.IsAdmin,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	return signed, expires, err
}

// ParseToken validates the signature and expiry of a token.
func ParseToken(secret, raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// jwtMiddleware stores valid bearer claims in the context. Requests without a
// token pass through so the session cookie can still authenticate them; a
// token that does not verify ends the request with ErrInvalidToken.
func jwtMiddleware(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: claimsKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return ParseToken(secret, auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if errors.Is(err, echojwt.ErrJWTMissing) {
				return nil
			}
			return errors.Wrap(ErrInvalidToken, err.Error())
		},
		ContinueOnIgnoredError: true,
	})
}

// resolveUser loads the signed-in user from the bearer claims or the session.
func resolveUser(sessionName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := int64(0)
			if claims, ok := c.Get(claimsKey).(*Claims); ok {
				id, _ = strconv.ParseInt(claims.Subject, 10, 64)
			} else if sess, err := session.Get(sessionName, c); err == nil {
				id, _ = sess.Values[sessionUserKey].(int64)
			}
			if id == 0 {
				return next(c)
			}
			user, err := GetAppContext(c).Accounts().Get(c.Request().Context(), id)
			if err != nil {
				zap.L().Debug("session user not found", zap.Int64("user_id", id), zap.Error(err))
				return next(c)
			}
			c.Set(currentUserKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c echo.Context) *domain.User {
	user, _ := c.Get(currentUserKey).(*domain.User)
	return user
}

func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentUser(c) == nil {
			return Fail(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Login required", nil)
		}
		return next(c)
	}
}

func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := CurrentUser(c)
		if user == nil {
			return Fail(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Login required", nil)
		}
		if !user.IsAdmin {
			return Fail(c, http.StatusForbidden, "FORBIDDEN", "Administrator access required", nil)
		}
		return next(c)
	}
}

// SignIn binds the user to the session cookie.
func SignIn(c echo.Context, user *domain.User) error {
	sess, err := session.Get(GetAppContext(c).Config().Web.SessionName, c)
	if err != nil {
		return err
	}
	sess.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionLifetime,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	sess.Values[sessionUserKey] = user.ID
	c.Set(currentUserKey, user)
	return sess.Save(c.Request(), c.Response())
}

func SignOut(c echo.Context) error {
	sess, err := session.Get(GetAppContext(c).Config().Web.SessionName, c)
	if err != nil {
		return err
	}
	sess.Options = &sessions.Options{Path: "/", MaxAge: -1, HttpOnly: true}
	delete(sess.Values, sessionUserKey)
	return sess.Save(c.Request(), c.Response())
}
