package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/mrlokans/docsafe/internal/entities"
)

// DocumentService covers the /documents endpoints.
type DocumentService struct {
	c *Client
}

// UploadInput is a document upload. File is read fully before sending.
type UploadInput struct {
	Title       string
	Description string
	FileName    string
	ContentType string
	File        io.Reader
}

type DocumentUpdate struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// ProgressFunc receives the upload progress in whole percent.
type ProgressFunc func(percent int)

// Upload sends the document as multipart/form-data. progress may be nil.
func (s *DocumentService) Upload(ctx context.Context, in UploadInput, progress ProgressFunc) (*entities.Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("title", in.Title); err != nil {
		return nil, err
	}
	if in.Description != "" {
		if err := mw.WriteField("description", in.Description); err != nil {
			return nil, err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(in.FileName)))
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, in.File); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	total := int64(buf.Len())
	var body io.Reader = &buf
	if progress != nil {
		body = &progressReader{r: &buf, total: total, report: progress, last: -1}
	}

	var env Envelope[*entities.Document]
	err = s.c.do(ctx, call{
		method:        http.MethodPost,
		family:        FamilyDocuments,
		segments:      []string{"documents"},
		rawBody:       body,
		contentType:   mw.FormDataContentType(),
		contentLength: total,
		invalidates:   []string{FamilyDocuments},
	}, &env)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// List returns all documents (admin).
func (s *DocumentService) List(ctx context.Context, f Filter) (*Page[entities.Document], error) {
	return s.list(ctx, []string{"documents"}, f)
}

// Mine returns the signed-in student's documents.
func (s *DocumentService) Mine(ctx context.Context, f Filter) (*Page[entities.Document], error) {
	return s.list(ctx, []string{"documents", "my"}, f)
}

func (s *DocumentService) list(ctx context.Context, segments []string, f Filter) (*Page[entities.Document], error) {
	var page Page[entities.Document]
	err := s.c.do(ctx, call{
		method:   http.MethodGet,
		family:   FamilyDocuments,
		segments: segments,
		query:    f.values(),
		cacheTTL: ListTTL,
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *DocumentService) Get(ctx context.Context, id string) (*entities.Document, error) {
	return s.one(ctx, call{method: http.MethodGet, cacheTTL: ListTTL}, id)
}

func (s *DocumentService) Update(ctx context.Context, id string, in DocumentUpdate) (*entities.Document, error) {
	return s.one(ctx, call{method: http.MethodPut, body: in}, id)
}

func (s *DocumentService) Delete(ctx context.Context, id string) error {
	_, err := s.one(ctx, call{method: http.MethodDelete}, id)
	return err
}

// Verify marks a document verified (admin).
func (s *DocumentService) Verify(ctx context.Context, id, remarks string) (*entities.Document, error) {
	var body any
	if remarks != "" {
		body = map[string]string{"remarks": remarks}
	}
	return s.one(ctx, call{method: http.MethodPut, body: body}, id, "verify")
}

// Reject marks a document rejected with a reason (admin).
func (s *DocumentService) Reject(ctx context.Context, id, reason string) (*entities.Document, error) {
	return s.one(ctx, call{method: http.MethodPut, body: map[string]string{"reason": reason}}, id, "reject")
}

func (s *DocumentService) one(ctx context.Context, cl call, id string, action ...string) (*entities.Document, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	cl.family = FamilyDocuments
	cl.segments = append([]string{"documents", id}, action...)
	if cl.method != http.MethodGet {
		cl.invalidates = []string{FamilyDocuments}
	}

	var env Envelope[*entities.Document]
	if err := s.c.do(ctx, cl, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// progressReader reports percent complete as the transport reads the body.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 {
		// Rounded like the browser's upload progress event.
		percent := int((p.read*100 + p.total/2) / p.total)
		if percent != p.last {
			p.last = percent
			p.report(percent)
		}
	}
	return n, err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
