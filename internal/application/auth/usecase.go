package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/saori-erp/saori-api/internal/application/dto"
	"github.com/saori-erp/saori-api/internal/domain"
	"github.com/saori-erp/saori-api/internal/domain/entity"
	"github.com/saori-erp/saori-api/internal/domain/permission"
	"github.com/saori-erp/saori-api/internal/domain/repository"
	"github.com/saori-erp/saori-api/pkg/jwt"
	"github.com/saori-erp/saori-api/pkg/logger"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret            string
	ExpMinutes        int // access token
	RefreshExpMinutes int
	Issuer            string
}

// AuditRecorder escribe la bitácora.
type AuditRecorder interface {
	Append(ctx context.Context, actorID, action, entityType, entityID string, details any) error
}

// ClientInfo datos de la conexión que se guardan en la bitácora del login.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// AuthUseCase casos de uso de autenticación: login, renovación de token y perfil.
type AuthUseCase struct {
	userRepo repository.UserRepository
	audit    AuditRecorder
	jwtCfg   JWTConfig
	log      *logger.Logger
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, audit AuditRecorder, jwtCfg JWTConfig, log *logger.Logger) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, audit: audit, jwtCfg: jwtCfg, log: log.Component("auth")}
}

// Login verifica email/password y emite access + refresh token.
// Usuario inexistente, inactivo o password incorrecto responden igual: ErrUnauthorized.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest, client ClientInfo) (*dto.LoginResponse, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email y contraseña son obligatorios", domain.ErrInvalidInput)
	}
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if user == nil || !user.Active {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		uc.log.Warn().Str("user_id", user.ID).Str("ip", client.IP).Msg("contraseña incorrecta")
		return nil, domain.ErrUnauthorized
	}

	id := identity(user)
	token, err := jwt.Generate(uc.jwtCfg.Secret, uc.jwtCfg.Issuer, jwt.TokenTypeAccess, id, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	refresh, err := jwt.Generate(uc.jwtCfg.Secret, uc.jwtCfg.Issuer, jwt.TokenTypeRefresh, id, uc.jwtCfg.RefreshExpMinutes)
	if err != nil {
		return nil, err
	}

	_ = uc.audit.Append(ctx, user.ID, entity.ActionLogin, "User", user.ID, map[string]any{
		"ip":        client.IP,
		"userAgent": client.UserAgent,
	})

	return &dto.LoginResponse{
		Token:        token,
		RefreshToken: refresh,
		User:         toUserResponse(user),
	}, nil
}

// Refresh valida un refresh token, recarga el usuario (debe seguir activo) y emite un access token nuevo
// con el rol y la sucursal vigentes.
func (uc *AuthUseCase) Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResponse, error) {
	claims, err := jwt.Parse(uc.jwtCfg.Secret, refreshToken, jwt.TokenTypeRefresh)
	if err != nil {
		if errors.Is(err, jwt.ErrWrongTokenType) {
			return nil, fmt.Errorf("%w: se esperaba un refresh token", domain.ErrUnauthorized)
		}
		return nil, domain.ErrUnauthorized
	}
	user, err := uc.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if user == nil || !user.Active {
		return nil, domain.ErrUnauthorized
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, uc.jwtCfg.Issuer, jwt.TokenTypeAccess, identity(user), uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.RefreshResponse{Token: token}, nil
}

// Me perfil del usuario autenticado con sus permisos.
func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if user == nil || !user.Active {
		return nil, domain.ErrUnauthorized
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// HashPassword bcrypt con costo por defecto (alta de usuarios, seed).
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func identity(u *entity.User) jwt.Identity {
	return jwt.Identity{UserID: u.ID, BranchID: u.BranchID, Role: u.Role, Name: u.Name}
}

func toUserResponse(u *entity.User) dto.UserResponse {
	role, _ := permission.ParseRole(u.Role)
	perms := permission.For(role)
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = string(p)
	}
	return dto.UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        string(role),
		BranchID:    u.BranchID,
		BranchName:  u.BranchName,
		Permissions: names,
	}
}
