package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/teampoints/core"
)

const (
	tokenContextKey  = "userToken"
	callerContextKey = "caller"
	tokenAudience    = "TeamPoints"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

func NewClaims(caller core.Caller, conf *core.Config) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   caller.ID.String(),
			Audience:  tokenAudience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: caller.Email,
		Role:  caller.Role,
	}
}

// GenerateToken generates a signed JWT token string identifying the caller.
func GenerateToken(caller core.Caller, conf *core.Config) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, NewClaims(caller, conf))

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextCaller returns the verified identity of the request.
func getContextCaller(ctx echo.Context) (core.Caller, error) {
	if caller, ok := ctx.Get(callerContextKey).(core.Caller); ok {
		return caller, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return core.Caller{}, err
	}
	id, ok := core.ParseID(claims.Subject)
	if !ok || !core.ValidRole(claims.Role) {
		return core.Caller{}, errUnauthorized
	}
	caller := core.Caller{ID: id, Email: claims.Email, Role: claims.Role}
	ctx.Set(callerContextKey, caller)
	return caller, nil
}

// roleMiddleware only lets callers with the given role through.
func roleMiddleware(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			caller, err := getContextCaller(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context caller")
			}
			if caller.Role != role {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
