package service

import (
	"context"
	"fmt"

	"github.com/aplatonov-me/Bank-REST/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// CreateUser registers a new user with the default USER role. Administrative
// operation.
func (s *Service) CreateUser(ctx context.Context, username, email, password string) (*models.UserResponse, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Infof("User created: %s", user.Username)
	return &models.UserResponse{ID: user.ID, Username: user.Username}, nil
}

// GetUser returns a user with their roles.
func (s *Service) GetUser(ctx context.Context, id int64) (*models.UserResponse, error) {
	user, err := s.users.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.UserResponse{ID: user.ID, Username: user.Username, Roles: user.Roles}, nil
}

// ListUsers returns a page of users.
func (s *Service) ListUsers(ctx context.Context, page, pageSize int) (*models.UserPage, error) {
	users, total, err := s.users.Users(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	resp := &models.UserPage{
		Users:      make([]models.UserResponse, 0, len(users)),
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages(total, pageSize),
	}
	for _, u := range users {
		resp.Users = append(resp.Users, models.UserResponse{ID: u.ID, Username: u.Username})
	}
	return resp, nil
}

// DeleteUser hard-deletes a user.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.log.Infof("User deleted: %d", id)
	return nil
}

// AssignRole grants a role to a user.
func (s *Service) AssignRole(ctx context.Context, userID int64, role string) error {
	if _, err := s.users.UserByID(ctx, userID); err != nil {
		return err
	}
	return s.users.AssignRole(ctx, userID, role)
}

// RemoveRole revokes a role from a user.
func (s *Service) RemoveRole(ctx context.Context, userID int64, role string) error {
	if _, err := s.users.UserByID(ctx, userID); err != nil {
		return err
	}
	return s.users.RemoveRole(ctx, userID, role)
}

func totalPages(total int64, pageSize int) int {
	return (int(total) + pageSize - 1) / pageSize
}
