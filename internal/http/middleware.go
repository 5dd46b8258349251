package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/example/conschedule/internal/application"
)

const requestIDHeader = "X-Request-ID"

// TokenVerifier turns a bearer token into a principal.
type TokenVerifier interface {
	Verify(token string) (application.Principal, error)
}

// JWTVerifier accepts HS256 tokens whose subject is the user id.
type JWTVerifier struct {
	secret []byte
	leeway time.Duration
}

// NewJWTVerifier returns a verifier for tokens signed with secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), leeway: 5 * time.Second}
}

// Verify checks the signature and expiry and returns the subject as principal.
func (v *JWTVerifier) Verify(token string) (application.Principal, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(v.leeway))
	if err != nil {
		return application.Principal{}, err
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return application.Principal{}, errors.New("token has no subject")
	}
	return application.Principal{UserID: claims.Subject}, nil
}

// RequireBearer rejects requests without a valid bearer token and attaches
// the principal to the request context.
func RequireBearer(verifier TokenVerifier, logger *slog.Logger) gin.HandlerFunc {
	responder := newResponder(logger)

	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			responder.writeError(c, http.StatusUnauthorized, errMissingToken)
			return
		}

		principal, err := verifier.Verify(token)
		if err != nil {
			responder.loggerFor(c).InfoContext(c.Request.Context(), "bearer token rejected", "error", err)
			responder.writeError(c, http.StatusUnauthorized, errInvalidToken)
			return
		}

		c.Request = c.Request.WithContext(ContextWithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// RequestLogger attaches a request-scoped logger carrying a request id and
// logs the outcome of every request.
func RequestLogger(base *slog.Logger) gin.HandlerFunc {
	base = defaultLogger(base)

	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		logger := base.With(
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		ctx := ContextWithLogger(c.Request.Context(), logger)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()
		logger.InfoContext(ctx, "request completed",
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
