package entities

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_Dashboard(t *testing.T) {
	assert.Equal(t, "/admin/dashboard", RoleAdmin.Dashboard())
	assert.Equal(t, "/student/dashboard", RoleStudent.Dashboard())
	assert.Equal(t, "/student/dashboard", Role("teacher").Dashboard())
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleStudent.Valid())
	assert.False(t, Role("").Valid())
	assert.False(t, Role("Admin").Valid())
}

func TestCredential_NeverFormatsRawValue(t *testing.T) {
	c := Credential("eyJhbGciOi.secret")

	assert.Equal(t, "[redacted]", c.String())
	assert.NotContains(t, fmt.Sprintf("%v %s", c, c), "secret")
	assert.Equal(t, "eyJhbGciOi.secret", string(c))
}

func TestCredential_Digest(t *testing.T) {
	a := Credential("token-a")
	b := Credential("token-b")

	assert.Len(t, a.Digest(), 16)
	assert.Equal(t, a.Digest(), Credential("token-a").Digest())
	assert.NotEqual(t, a.Digest(), b.Digest())
}

func TestIdentity_JSONFieldNames(t *testing.T) {
	raw := `{"_id":"u1","name":"Asha","email":"asha@uni.edu","role":"student",
		"enrollmentNumber":"EN-42","course":"CS","year":2,"isActive":true,
		"createdAt":"2024-01-02T03:04:05.000Z","updatedAt":"2024-01-02T03:04:05.000Z"}`

	var id Identity
	require.NoError(t, json.Unmarshal([]byte(raw), &id))

	assert.Equal(t, "u1", id.ID)
	assert.Equal(t, RoleStudent, id.Role)
	assert.Equal(t, "EN-42", id.EnrollmentNumber)
	assert.Equal(t, 2, id.Year)
	assert.True(t, id.IsActive)
	assert.True(t, id.IsStudent())
	assert.False(t, id.IsAdmin())
	assert.Equal(t, 2024, id.CreatedAt.Year())
}

func TestStatistics_Counts(t *testing.T) {
	var s Statistics
	s.CountDocuments([]Document{
		{Status: DocumentPending}, {Status: DocumentVerified}, {Status: DocumentVerified}, {Status: DocumentRejected},
	})
	s.CountRequests([]Request{{Status: RequestPending}, {Status: RequestApproved}})
	s.CountUsers([]Identity{{Role: RoleAdmin}, {Role: RoleStudent}, {Role: RoleStudent}})

	assert.Equal(t, 4, s.TotalDocuments)
	assert.Equal(t, 1, s.PendingDocuments)
	assert.Equal(t, 50, s.VerificationRate())
	assert.Equal(t, 1, s.PendingRequests)
	assert.Equal(t, 3, s.TotalUsers)
	assert.Equal(t, 2, s.TotalStudents)
	assert.Equal(t, 0, Statistics{}.VerificationRate())
}
