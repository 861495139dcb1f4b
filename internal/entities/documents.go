package entities

import "time"

// DocumentStatus is the verification state of an uploaded document.
type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentVerified DocumentStatus = "verified"
	DocumentRejected DocumentStatus = "rejected"
)

type Document struct {
	ID               string         `json:"_id"`
	UserID           string         `json:"userId"`
	UserName         string         `json:"userName"`
	UserEmail        string         `json:"userEmail"`
	EnrollmentNumber string         `json:"enrollmentNumber,omitempty"`
	Title            string         `json:"title"`
	Description      string         `json:"description,omitempty"`
	FileName         string         `json:"fileName"`
	FileURL          string         `json:"fileUrl"`
	FileSize         int64          `json:"fileSize"`
	FileType         string         `json:"fileType"`
	Status           DocumentStatus `json:"status"`
	VerifiedBy       string         `json:"verifiedBy,omitempty"`
	VerifiedAt       *time.Time     `json:"verifiedAt,omitempty"`
	RejectionReason  string         `json:"rejectionReason,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// RequestStatus is the handling state of a student request.
type RequestStatus string

const (
	RequestPending    RequestStatus = "pending"
	RequestApproved   RequestStatus = "approved"
	RequestRejected   RequestStatus = "rejected"
	RequestInProgress RequestStatus = "in-progress"
)

type Request struct {
	ID               string        `json:"_id"`
	UserID           string        `json:"userId"`
	UserName         string        `json:"userName"`
	UserEmail        string        `json:"userEmail"`
	EnrollmentNumber string        `json:"enrollmentNumber,omitempty"`
	RequestType      string        `json:"requestType"`
	Description      string        `json:"description"`
	Status           RequestStatus `json:"status"`
	Documents        []string      `json:"documents,omitempty"`
	Response         string        `json:"response,omitempty"`
	HandledBy        string        `json:"handledBy,omitempty"`
	HandledAt        *time.Time    `json:"handledAt,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// Statistics aggregates counters shown on the dashboards.
type Statistics struct {
	TotalDocuments    int
	PendingDocuments  int
	VerifiedDocuments int
	RejectedDocuments int
	TotalUsers        int
	TotalStudents     int
	TotalRequests     int
	PendingRequests   int
}

// VerificationRate returns the share of verified documents in percent.
func (s Statistics) VerificationRate() int {
	if s.TotalDocuments == 0 {
		return 0
	}
	return s.VerifiedDocuments * 100 / s.TotalDocuments
}

// CountDocuments tallies documents by status into s.
func (s *Statistics) CountDocuments(docs []Document) {
	for _, d := range docs {
		s.TotalDocuments++
		switch d.Status {
		case DocumentPending:
			s.PendingDocuments++
		case DocumentVerified:
			s.VerifiedDocuments++
		case DocumentRejected:
			s.RejectedDocuments++
		}
	}
}

// CountRequests tallies requests into s.
func (s *Statistics) CountRequests(reqs []Request) {
	for _, r := range reqs {
		s.TotalRequests++
		if r.Status == RequestPending {
			s.PendingRequests++
		}
	}
}

// CountUsers tallies users and students into s.
func (s *Statistics) CountUsers(users []Identity) {
	for _, u := range users {
		s.TotalUsers++
		if u.Role == RoleStudent {
			s.TotalStudents++
		}
	}
}
