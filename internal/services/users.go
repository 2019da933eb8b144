package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/cipelem/pengaduan-server/internal/lifecycle"
	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/cipelem/pengaduan-server/internal/store"
	"go.uber.org/zap"
)

// UserService is the admin's account management
type UserService struct {
	users  store.UserStore
	auth   *AuthService
	logger *zap.SugaredLogger
}

// NewUserService creates a new user service
func NewUserService(users store.UserStore, auth *AuthService, logger *zap.SugaredLogger) *UserService {
	return &UserService{users: users, auth: auth, logger: logger}
}

// CreateUserInput is the admin's new-account form
type CreateUserInput struct {
	FullName string      `json:"full_name" validate:"required,max=150"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6,max=72"`
	Role     models.Role `json:"role" validate:"required"`
	NIK      string      `json:"nik" validate:"max=32"`
	NoHP     string      `json:"no_hp" validate:"max=30"`
	Alamat   string      `json:"alamat" validate:"max=300"`
}

// UserList is a filtered account list with per-role totals over all accounts
type UserList struct {
	Users  []models.User       `json:"users"`
	Counts map[models.Role]int `json:"counts"`
}

// List returns accounts matching search. Admin only.
func (s *UserService) List(ctx context.Context, actor models.Actor, search string) (*UserList, error) {
	if err := lifecycle.RequireAdmin(actor, "list users"); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, storeErr("list users", "users", "", err)
	}
	return &UserList{
		Users:  lifecycle.FilterUsers(users, search),
		Counts: lifecycle.CountRoles(users),
	}, nil
}

// Create adds an account with any role. Admin only.
func (s *UserService) Create(ctx context.Context, actor models.Actor, in CreateUserInput) (*models.User, error) {
	if err := lifecycle.RequireAdmin(actor, "create users"); err != nil {
		return nil, err
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	if err := lifecycle.CheckStruct(in); err != nil {
		return nil, err
	}
	if !in.Role.IsValid() {
		return nil, &lifecycle.ValidationError{Field: "role", Message: "unknown role " + string(in.Role)}
	}

	u := &models.User{
		FullName:  in.FullName,
		Email:     in.Email,
		Role:      in.Role,
		NIK:       optional(in.NIK),
		NoHP:      optional(in.NoHP),
		Alamat:    optional(in.Alamat),
		CreatedAt: s.auth.now().UTC(),
	}
	if err := s.auth.createUser(ctx, u, in.Password); err != nil {
		return nil, err
	}
	s.logger.Infow("User created", "id", u.ID, "email", u.Email, "role", u.Role, "by", actor.Email)
	return u, nil
}

// Delete removes an account. Admin only; admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if err := lifecycle.RequireAdmin(actor, "delete users"); err != nil {
		return err
	}
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return storeErr("get user", "user", strconv.FormatInt(id, 10), err)
	}
	if strings.EqualFold(u.Email, actor.Email) {
		return &lifecycle.ValidationError{Field: "id", Message: "you cannot delete your own account"}
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return storeErr("delete user", "user", strconv.FormatInt(id, 10), err)
	}
	s.logger.Infow("User deleted", "id", id, "email", u.Email, "by", actor.Email)
	return nil
}

// Bootstrap creates an admin account with no acting admin. It backs the
// operator CLI, which runs with direct database access.
func (s *UserService) Bootstrap(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Role = models.RoleAdmin
	return s.Create(ctx, models.Actor{Role: models.RoleAdmin, Name: "operator"}, in)
}

// ProfileInput is the editable part of one's own account. Email and role
// are not editable here.
type ProfileInput struct {
	FullName string `json:"full_name" validate:"required,max=150"`
	NoHP     string `json:"no_hp" validate:"max=30"`
	Alamat   string `json:"alamat" validate:"max=300"`
}

// Profile returns the account the actor is logged in as
func (s *UserService) Profile(ctx context.Context, actor models.Actor) (*models.User, error) {
	if actor.Email == "" {
		return nil, &lifecycle.ForbiddenError{Role: actor.Role, Action: "view a profile without an account"}
	}
	u, err := s.users.GetUserByEmail(ctx, actor.Email)
	if err != nil {
		return nil, storeErr("get user", "user", actor.Email, err)
	}
	return u, nil
}

// UpdateProfile edits the actor's own name, phone and address
func (s *UserService) UpdateProfile(ctx context.Context, actor models.Actor, in ProfileInput) (*models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	if err := lifecycle.CheckStruct(in); err != nil {
		return nil, err
	}
	u, err := s.Profile(ctx, actor)
	if err != nil {
		return nil, err
	}
	u.FullName = in.FullName
	u.NoHP = optional(in.NoHP)
	u.Alamat = optional(in.Alamat)
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, storeErr("update user", "user", strconv.FormatInt(u.ID, 10), err)
	}
	s.logger.Infow("Profile updated", "id", u.ID, "email", u.Email)
	return u, nil
}
