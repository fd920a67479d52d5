package service

import (
	"context"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"cmsadmin/internal/auth"
	"cmsadmin/internal/database"
	"cmsadmin/internal/errcode"
	"cmsadmin/internal/events"
	"cmsadmin/internal/store"
)

const minPasswordLength = 8

type UserService struct {
	*Resource[database.User]
}

func NewUserService(db *gorm.DB, pub events.Publisher, logger *slog.Logger) *UserService {
	st := store.New(db, "user",
		store.WithFilterable[database.User]("name", "email", "role"),
	)
	return &UserService{Resource: NewResource(st, "users", pub, logger)}
}

// NewUser is the input for creating an account. Role defaults to USER.
type NewUser struct {
	Name               string
	Email              string
	Password           string
	Role               database.Role
	MustChangePassword bool
}

// UserPatch lists the fields an update may change; nil means unchanged.
type UserPatch struct {
	Name     *string
	Email    *string
	Role     *database.Role
	Password *string
}

func (s *UserService) Create(ctx context.Context, in NewUser) (*database.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errcode.Validation("name is required")
	}
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, errcode.Validation("email is required")
	}
	role := in.Role
	if role == "" {
		role = database.RoleUser
	}
	if !role.Valid() {
		return nil, errcode.Validation("role must be ADMIN or USER")
	}
	hashed, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &database.User{
		Name:               name,
		Email:              email,
		PasswordHash:       hashed,
		Role:               role,
		MustChangePassword: in.MustChangePassword,
	}
	if err := s.Resource.Create(ctx, user); err != nil {
		return nil, emailConflict(err)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id uint, p UserPatch) (*database.User, error) {
	patch := store.Patch{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, errcode.Validation("name must not be empty")
		}
		patch["name"] = name
	}
	if p.Email != nil {
		email := normalizeEmail(*p.Email)
		if email == "" {
			return nil, errcode.Validation("email must not be empty")
		}
		patch["email"] = email
	}
	if p.Role != nil {
		if !p.Role.Valid() {
			return nil, errcode.Validation("role must be ADMIN or USER")
		}
		patch["role"] = *p.Role
	}
	if p.Password != nil {
		hashed, err := hashPassword(*p.Password)
		if err != nil {
			return nil, err
		}
		patch["password_hash"] = hashed
	}

	user, err := s.Resource.Update(ctx, id, patch)
	if err != nil {
		return nil, emailConflict(err)
	}
	return user, nil
}

// Authenticate returns the account for email when password matches. Unknown
// emails and wrong passwords fail the same way.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*database.User, error) {
	user, err := s.Store().FindOne(ctx, store.Filter{"email": normalizeEmail(email)})
	if err != nil {
		if errcode.Is(err, errcode.KindNotFound) {
			return nil, errcode.Wrap(errcode.KindUnauthorized, "invalid credentials", err)
		}
		return nil, err
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, errcode.New(errcode.KindUnauthorized, "invalid credentials")
	}
	return user, nil
}

// ChangePassword verifies the current password, stores the new one and clears the forced-change flag.
func (s *UserService) ChangePassword(ctx context.Context, id uint, current, next string) (*database.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		if errcode.Is(err, errcode.KindNotFound) {
			return nil, errcode.Wrap(errcode.KindUnauthorized, "account no longer exists", err)
		}
		return nil, err
	}
	if !auth.CheckPasswordHash(current, user.PasswordHash) {
		return nil, errcode.New(errcode.KindUnauthorized, "current password is incorrect")
	}
	if strings.TrimSpace(next) == strings.TrimSpace(current) {
		return nil, errcode.Validation("new password must be different from current password")
	}
	hashed, err := hashPassword(next)
	if err != nil {
		return nil, err
	}
	return s.Resource.Update(ctx, id, store.Patch{
		"password_hash":        hashed,
		"must_change_password": false,
	})
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", errcode.Validation("password must be at least 8 characters")
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return "", errcode.Wrap(errcode.KindInternal, "hash password", err)
	}
	return hashed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailConflict(err error) error {
	if errcode.Is(err, errcode.KindConflict) {
		return errcode.Wrap(errcode.KindConflict, "email already registered", err)
	}
	return err
}
