package api

import (
	"context"
	"net/http"

	"github.com/mrlokans/docsafe/internal/entities"
	apperrors "github.com/mrlokans/docsafe/internal/errors"
)

// AuthService covers the /auth endpoints.
type AuthService struct {
	c *Client
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterInput struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	Role             string `json:"role,omitempty"`
	EnrollmentNumber string `json:"enrollmentNumber,omitempty"`
	Course           string `json:"course,omitempty"`
	Year             int    `json:"year,omitempty"`
}

// Session is what login and register hand back.
type Session struct {
	User  entities.Identity   `json:"user"`
	Token entities.Credential `json:"token"`
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	return s.signIn(ctx, "login", in, "Login failed. Please try again.")
}

// Register creates a student account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if in.Role == "" {
		in.Role = string(entities.RoleStudent)
	}
	return s.signIn(ctx, "register", in, "Registration failed. Please try again.")
}

func (s *AuthService) signIn(ctx context.Context, endpoint string, body any, fallback string) (*Session, error) {
	var env Envelope[*Session]
	err := s.c.do(ctx, call{
		method:    http.MethodPost,
		family:    FamilyAuth,
		segments:  []string{"auth", endpoint},
		body:      body,
		authEntry: true,
	}, &env)
	if err != nil {
		return nil, err
	}
	if env.Data == nil || env.Data.Token.IsZero() || env.Data.User.ID == "" {
		return nil, apperrors.New(apperrors.KindAuthFailure, fallback)
	}
	if !env.Data.User.Role.Valid() {
		return nil, apperrors.New(apperrors.KindAuthFailure, "Your account has an unsupported role.")
	}
	return env.Data, nil
}

// Me returns the identity the current credential belongs to.
func (s *AuthService) Me(ctx context.Context) (*entities.Identity, error) {
	var env Envelope[*entities.Identity]
	err := s.c.do(ctx, call{
		method:   http.MethodGet,
		family:   FamilyUsers,
		segments: []string{"auth", "me"},
		cacheTTL: CurrentUserTTL,
	}, &env)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, apperrors.New(apperrors.KindTransport, "Unexpected response from the document service.")
	}
	return env.Data, nil
}

// ForgotPassword asks the service to mail a reset link.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	return s.message(ctx, http.MethodPost, []string{"auth", "forgotpassword"}, map[string]string{"email": email})
}

// ResetPassword sets a new password using the emailed reset token.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, password string) (string, error) {
	if err := checkID(resetToken); err != nil {
		return "", err
	}
	return s.message(ctx, http.MethodPut, []string{"auth", "resetpassword", resetToken}, map[string]string{"password": password})
}

func (s *AuthService) UpdatePassword(ctx context.Context, currentPassword, newPassword string) (string, error) {
	return s.message(ctx, http.MethodPut, []string{"auth", "updatepassword"}, map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	})
}

func (s *AuthService) message(ctx context.Context, method string, segments []string, body any) (string, error) {
	var env Envelope[struct {
		Message string `json:"message"`
	}]
	if err := s.c.do(ctx, call{method: method, family: FamilyAuth, segments: segments, body: body}, &env); err != nil {
		return "", err
	}
	if env.Data.Message != "" {
		return env.Data.Message, nil
	}
	return env.Message, nil
}
