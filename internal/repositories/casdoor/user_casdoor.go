package casdoor

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/SAP-F-2025/quiz-access-service/internal/cache"
	"github.com/SAP-F-2025/quiz-access-service/internal/models"
	"github.com/SAP-F-2025/quiz-access-service/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// userLookup is the part of the Casdoor client the repository needs
type userLookup interface {
	GetUserByUserId(userId string) (*casdoorsdk.User, error)
}

type UserCasdoor struct {
	client userLookup
	cache  *cache.CacheHelper
}

func NewUserCasdoor(config CasdoorConfig, cacheManager *cache.CacheManager) repositories.UserRepository {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)
	return &UserCasdoor{client: client, cache: cacheManager.User}
}

// GetByID retrieves a user, including the groups used to pick quiz overrides
func (u *UserCasdoor) GetByID(ctx context.Context, id string) (*models.User, error) {
	cacheKey := fmt.Sprintf("id:%s", id)
	var user models.User
	err := u.cache.CacheOrExecute(ctx, cacheKey, &user, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		casdoorUser, err := u.client.GetUserByUserId(id)
		if err != nil {
			return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
		}
		if casdoorUser == nil {
			return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
		}
		return ConvertUser(casdoorUser), nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ConvertUser maps a Casdoor user to the internal identity
func ConvertUser(casdoorUser *casdoorsdk.User) *models.User {
	return &models.User{
		ID:            casdoorUser.Id,
		FullName:      casdoorUser.DisplayName,
		Email:         casdoorUser.Email,
		Role:          convertRoles(casdoorUser),
		Groups:        casdoorUser.Groups,
		AvatarURL:     &casdoorUser.Avatar,
		EmailVerified: casdoorUser.EmailVerified,
	}
}

func convertRoles(casdoorUser *casdoorsdk.User) models.UserRole {
	var roles []models.UserRole
	for _, casdoorRole := range casdoorUser.Roles {
		mapped := MapRole(casdoorRole.Name)
		if !slices.Contains(roles, mapped) {
			roles = append(roles, mapped)
		}
	}

	// if contain admin, only keep admin
	if slices.Contains(roles, models.RoleAdmin) || casdoorUser.IsAdmin {
		return models.RoleAdmin
	}
	if slices.Contains(roles, models.RoleTeacher) {
		return models.RoleTeacher
	}
	if len(roles) == 0 {
		return MapRole(casdoorUser.Type)
	}
	return roles[0]
}

// MapRole maps a Casdoor role name or user type to an internal role
func MapRole(name string) models.UserRole {
	switch strings.ToLower(name) {
	case "admin", "administrator":
		return models.RoleAdmin
	case "teacher", "instructor", "educator":
		return models.RoleTeacher
	case "proctor", "supervisor":
		return models.RoleProctor
	default:
		return models.RoleStudent
	}
}
