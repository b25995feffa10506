package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"doctor-appointment-service/internal/domain/entity"
	"doctor-appointment-service/pkg/jwt"
	"doctor-appointment-service/pkg/response"

	"github.com/redis/go-redis/v9"
)

type contextKey string

const principalKey contextKey = "principal"

// AuthMiddleware authenticates the caller and attaches an explicit
// entity.Principal to the request context. Handlers pass the principal into
// usecases as a parameter; nothing below the delivery layer reads it from
// ambient state.
type AuthMiddleware struct {
	jwtService  *jwt.JWTService
	redisClient *redis.Client
}

func NewAuthMiddleware(jwtService *jwt.JWTService, redisClient *redis.Client) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:  jwtService,
		redisClient: redisClient,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		if claims.TokenType != jwt.AccessToken {
			response.Unauthorized(w, "Invalid token type")
			return
		}

		// Check if token exists in Redis (not revoked)
		tokenKey := fmt.Sprintf("access_token:%s:%s", claims.UserID.String(), claims.TokenID)
		exists, err := m.redisClient.Exists(r.Context(), tokenKey).Result()
		if err != nil {
			response.InternalServerError(w, "Failed to validate token")
			return
		}
		if exists == 0 {
			response.Unauthorized(w, "Token has been revoked")
			return
		}

		role := entity.Role(claims.Role)
		switch role {
		case entity.RolePatient, entity.RoleDoctor, entity.RoleAdmin:
		default:
			response.Unauthorized(w, "Unknown role")
			return
		}

		principal := entity.Principal{ID: claims.UserID, Role: role}
		ctx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetPrincipalFromContext extracts the authenticated principal set by
// Authenticate.
func GetPrincipalFromContext(ctx context.Context) (entity.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(entity.Principal)
	return principal, ok
}
