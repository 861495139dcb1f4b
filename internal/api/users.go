package api

import (
	"context"
	"net/http"

	"github.com/mrlokans/docsafe/internal/entities"
)

// UserService covers the /users endpoints.
type UserService struct {
	c *Client
}

// UserUpdate is an admin edit of a user; nil and empty fields are left alone.
type UserUpdate struct {
	Name             string `json:"name,omitempty"`
	Email            string `json:"email,omitempty"`
	EnrollmentNumber string `json:"enrollmentNumber,omitempty"`
	Course           string `json:"course,omitempty"`
	Year             int    `json:"year,omitempty"`
	IsActive         *bool  `json:"isActive,omitempty"`
}

// ProfileUpdate is a user's edit of their own profile.
type ProfileUpdate struct {
	Name             string `json:"name,omitempty"`
	Email            string `json:"email,omitempty"`
	EnrollmentNumber string `json:"enrollmentNumber,omitempty"`
	Course           string `json:"course,omitempty"`
	Year             int    `json:"year,omitempty"`
}

func (s *UserService) List(ctx context.Context, f Filter) (*Page[entities.Identity], error) {
	var page Page[entities.Identity]
	err := s.c.do(ctx, call{
		method:   http.MethodGet,
		family:   FamilyUsers,
		segments: []string{"users"},
		query:    f.values(),
		cacheTTL: UserListTTL,
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*entities.Identity, error) {
	return s.one(ctx, call{method: http.MethodGet, cacheTTL: UserListTTL}, id)
}

func (s *UserService) Update(ctx context.Context, id string, in UserUpdate) (*entities.Identity, error) {
	return s.one(ctx, call{method: http.MethodPut, body: in}, id)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	_, err := s.one(ctx, call{method: http.MethodDelete}, id)
	return err
}

// UpdateProfile edits the signed-in user. The returned identity is for
// display only; the session keeps the role it was issued with.
func (s *UserService) UpdateProfile(ctx context.Context, in ProfileUpdate) (*entities.Identity, error) {
	var env Envelope[*entities.Identity]
	err := s.c.do(ctx, call{
		method:      http.MethodPut,
		family:      FamilyUsers,
		segments:    []string{"users", "profile", "update"},
		body:        in,
		invalidates: []string{FamilyUsers},
	}, &env)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (s *UserService) one(ctx context.Context, cl call, id string) (*entities.Identity, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	cl.family = FamilyUsers
	cl.segments = []string{"users", id}
	if cl.method != http.MethodGet {
		cl.invalidates = []string{FamilyUsers}
	}

	var env Envelope[*entities.Identity]
	if err := s.c.do(ctx, cl, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}
