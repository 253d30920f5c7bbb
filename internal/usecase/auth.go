package usecase

import (
	"context"

	"amenpay/internal/domain/user"
	"amenpay/internal/pkg/errs"
	"amenpay/internal/pkg/jwt"
	"amenpay/internal/pkg/password"
)

type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
}

type AuthUseCase interface {
	Login(ctx context.Context, email, plainPassword string) (string, *user.User, error)
	GetCurrentUser(ctx context.Context, userID int64) (*user.User, error)
	ValidateToken(ctx context.Context, tokenString string) (int64, user.Role, error)
}

type authUseCaseImpl struct {
	users      UserRepository
	jwtService *jwt.Service
}

func NewAuthUseCase(users UserRepository, jwtService *jwt.Service) AuthUseCase {
	return &authUseCaseImpl{users: users, jwtService: jwtService}
}

func (a *authUseCaseImpl) Login(ctx context.Context, email, plainPassword string) (string, *user.User, error) {
	u, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		// Credentials and existence collapse into one answer so the endpoint
		// can't be used to probe for accounts.
		return "", nil, errs.ErrInvalidCredential
	}
	if !u.IsActive {
		return "", nil, errs.ErrUserInactive
	}
	if err := password.Compare(u.PasswordHash, plainPassword); err != nil {
		return "", nil, errs.ErrInvalidCredential
	}

	token, err := a.jwtService.GenerateToken(u.ID, u.Role)
	if err != nil {
		return "", nil, errs.Wrap(err, "failed to generate token")
	}
	return token, u, nil
}

func (a *authUseCaseImpl) GetCurrentUser(ctx context.Context, userID int64) (*user.User, error) {
	u, err := a.users.FindByID(ctx, userID)
	if err != nil {
		return nil, errs.ErrUserNotFound
	}
	if !u.IsActive {
		return nil, errs.ErrUserInactive
	}
	return u, nil
}

// ValidateToken checks the signature, then resolves the principal so a token
// minted before an account was deactivated stops working immediately. The
// stored role wins over the claim for the same reason.
func (a *authUseCaseImpl) ValidateToken(ctx context.Context, tokenString string) (int64, user.Role, error) {
	claims, err := a.jwtService.ValidateToken(tokenString)
	if err != nil {
		return 0, "", errs.ErrTokenInvalid
	}
	u, err := a.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return 0, "", errs.ErrTokenInvalid
	}
	if !u.IsActive {
		return 0, "", errs.ErrUserInactive
	}
	return u.ID, u.Role, nil
}
