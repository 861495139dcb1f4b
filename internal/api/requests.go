package api

import (
	"context"
	"net/http"

	"github.com/mrlokans/docsafe/internal/entities"
)

// RequestService covers the /requests endpoints.
type RequestService struct {
	c *Client
}

type RequestInput struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	DocumentID  string `json:"documentId,omitempty"`
}

type RequestUpdate struct {
	Description string                 `json:"description,omitempty"`
	Status      entities.RequestStatus `json:"status,omitempty"`
	Response    string                 `json:"response,omitempty"`
}

func (s *RequestService) Create(ctx context.Context, in RequestInput) (*entities.Request, error) {
	var env Envelope[*entities.Request]
	err := s.c.do(ctx, call{
		method:      http.MethodPost,
		family:      FamilyRequests,
		segments:    []string{"requests"},
		body:        in,
		invalidates: []string{FamilyRequests},
	}, &env)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// List returns all requests (admin).
func (s *RequestService) List(ctx context.Context, f Filter) (*Page[entities.Request], error) {
	return s.list(ctx, []string{"requests"}, f)
}

// Mine returns the signed-in student's requests.
func (s *RequestService) Mine(ctx context.Context, f Filter) (*Page[entities.Request], error) {
	return s.list(ctx, []string{"requests", "my"}, f)
}

func (s *RequestService) list(ctx context.Context, segments []string, f Filter) (*Page[entities.Request], error) {
	var page Page[entities.Request]
	err := s.c.do(ctx, call{
		method:   http.MethodGet,
		family:   FamilyRequests,
		segments: segments,
		query:    f.values(),
		cacheTTL: ListTTL,
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *RequestService) Get(ctx context.Context, id string) (*entities.Request, error) {
	return s.one(ctx, call{method: http.MethodGet, cacheTTL: ListTTL}, id)
}

func (s *RequestService) Update(ctx context.Context, id string, in RequestUpdate) (*entities.Request, error) {
	return s.one(ctx, call{method: http.MethodPut, body: in}, id)
}

func (s *RequestService) Delete(ctx context.Context, id string) error {
	_, err := s.one(ctx, call{method: http.MethodDelete}, id)
	return err
}

func (s *RequestService) Approve(ctx context.Context, id, remarks string) (*entities.Request, error) {
	return s.one(ctx, call{method: http.MethodPut, body: remarksBody(remarks)}, id, "approve")
}

func (s *RequestService) Reject(ctx context.Context, id, reason string) (*entities.Request, error) {
	return s.one(ctx, call{method: http.MethodPut, body: map[string]string{"reason": reason}}, id, "reject")
}

func (s *RequestService) Complete(ctx context.Context, id, remarks string) (*entities.Request, error) {
	return s.one(ctx, call{method: http.MethodPut, body: remarksBody(remarks)}, id, "complete")
}

func (s *RequestService) one(ctx context.Context, cl call, id string, action ...string) (*entities.Request, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	cl.family = FamilyRequests
	cl.segments = append([]string{"requests", id}, action...)
	if cl.method != http.MethodGet {
		cl.invalidates = []string{FamilyRequests}
	}

	var env Envelope[*entities.Request]
	if err := s.c.do(ctx, cl, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func remarksBody(remarks string) any {
	if remarks == "" {
		return nil
	}
	return map[string]string{"remarks": remarks}
}
