package auth

import (
	"context"
	"errors"
	"time"

	"girvi-backend/internal/auth"
	"girvi-backend/internal/domain/user"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type Usecase struct {
	users user.Repository
	jwt   *auth.JWTManager
}

func NewUsecase(users user.Repository, jwt *auth.JWTManager) *Usecase {
	return &Usecase{users: users, jwt: jwt}
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionDTO struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
}

// Login checks credentials and issues a session token. Unknown emails,
// wrong passwords and deactivated users all collapse into the same error.
func (u *Usecase) Login(ctx context.Context, in LoginInput) (*SessionDTO, error) {
	usr, err := u.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !usr.IsActive {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(in.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := u.jwt.GenerateToken(usr)
	if err != nil {
		return nil, err
	}
	return &SessionDTO{
		Token:     token,
		ExpiresAt: exp,
		UserID:    usr.UserID,
		Email:     usr.Email,
		Name:      usr.Name,
	}, nil
}

// HashPassword is used by seeding and user provisioning.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
