package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-access-service/internal/config"
	"github.com/SAP-F-2025/quiz-access-service/internal/models"
	"github.com/SAP-F-2025/quiz-access-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-access-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/quiz-access-service/internal/utils"
)

// TokenVerifier turns a bearer token into the authenticated user
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware authenticates requests with a TokenVerifier
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   utils.Logger
}

func NewAuthMiddleware(verifier TokenVerifier, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// AuthMiddleware returns a Gin middleware function that rejects unauthenticated requests
func (am *AuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": err.Error(),
			})
			return
		}

		user, err := am.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			utils.GetLogger(c, am.logger).Warn("Token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": fmt.Sprintf("invalid token: %v", err),
			})
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Set("user_role", user.Role)
		c.Next()
	}
}

// RequireRoleMiddleware checks if user has required role. Admins pass every check.
func (am *AuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": err.Error(),
			})
			return
		}

		if role != models.RoleAdmin && !slices.Contains(requiredRoles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles),
			})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header missing")
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("invalid authorization header format")
	}
	return strings.TrimSpace(token), nil
}

// ===== CASDOOR =====

// CasdoorVerifier validates tokens issued by Casdoor
type CasdoorVerifier struct {
	client   *casdoorsdk.Client
	userRepo repositories.UserRepository
}

func NewCasdoorVerifier(cfg config.CasdoorConfig, userRepo repositories.UserRepository) *CasdoorVerifier {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)
	return &CasdoorVerifier{client: client, userRepo: userRepo}
}

func (v *CasdoorVerifier) Verify(ctx context.Context, token string) (*models.User, error) {
	claims, err := v.client.ParseJwtToken(token)
	if err != nil {
		return nil, err
	}
	if claims.Id == "" {
		return nil, errors.New("invalid user ID in token")
	}

	// the repository carries the groups; the token only has what Casdoor put in it at login
	user, err := v.userRepo.GetByID(ctx, claims.Id)
	if err != nil {
		return casdoor.ConvertUser(&claims.User), nil
	}
	return user, nil
}

// ===== CONTEXT =====

// GetUserFromContext extracts user from Gin context
func GetUserFromContext(c *gin.Context) (*models.User, error) {
	user, exists := c.Get("user")
	if !exists {
		return nil, fmt.Errorf("user not found in context")
	}

	userModel, ok := user.(*models.User)
	if !ok {
		return nil, fmt.Errorf("invalid user type in context")
	}
	return userModel, nil
}

// GetUserRoleFromContext extracts user role from Gin context
func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	userRole, exists := c.Get("user_role")
	if !exists {
		return "", fmt.Errorf("user role not found in context")
	}

	role, ok := userRole.(models.UserRole)
	if !ok {
		return "", fmt.Errorf("invalid user role type in context")
	}
	return role, nil
}
