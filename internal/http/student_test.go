package http

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pendingDocumentPage = `{"success":true,"data":[{"_id":"d1","userId":"s1","userName":"Asha","userEmail":"asha@example.edu","title":"Transcript","fileName":"transcript.pdf","fileUrl":"/uploads/transcript.pdf","fileSize":2048,"fileType":"application/pdf","status":"pending","createdAt":"2024-03-01T10:00:00Z","updatedAt":"2024-03-01T10:00:00Z"}],"pagination":{"currentPage":1,"totalPages":3,"totalItems":21,"itemsPerPage":10}}`

func newStudentApp(t *testing.T) (*testApp, *browser) {
	t.Helper()
	app := newTestApp(t)
	app.service.handle("GET /api/documents/my", func(w http.ResponseWriter, r *http.Request) {
		writeRaw(w, http.StatusOK, pendingDocumentPage)
	})
	app.service.handle("GET /api/requests/my", func(w http.ResponseWriter, r *http.Request) {
		writeRaw(w, http.StatusOK, emptyPage())
	})
	b := app.browser(t)
	b.login("asha@example.edu")
	return app, b
}

func multipartUpload(t *testing.T, fields map[string]string, fileName string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, studentDocumentsPath, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestStudentDashboard(t *testing.T) {
	_, b := newStudentApp(t)

	w := b.get("/student/dashboard")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Transcript")
}

func TestStudentDocumentsList(t *testing.T) {
	app, b := newStudentApp(t)

	w := b.get("/student/documents?status=pending&page=2")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "transcript.pdf")
	assert.Contains(t, body, "2.0 KB")
	assert.Contains(t, body, "/student/documents/d1/delete")
	assert.True(t, app.service.called("GET /api/documents/my"))
}

func TestStudentUpload(t *testing.T) {
	t.Run("forwards the file and title as multipart", func(t *testing.T) {
		app, b := newStudentApp(t)

		var mu sync.Mutex
		var gotTitle, gotFile, gotType string
		app.service.handle("POST /api/documents", func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				writeRaw(w, http.StatusBadRequest, `{"success":false,"message":"bad form"}`)
				return
			}
			gotTitle = r.FormValue("title")
			f, fh, err := r.FormFile("file")
			if err == nil {
				defer f.Close()
				raw, _ := io.ReadAll(f)
				gotFile = fh.Filename + ":" + string(raw)
				gotType = fh.Header.Get("Content-Type")
			}
			writeRaw(w, http.StatusCreated, `{"success":true,"data":{"_id":"d2","title":"ID card","status":"pending"}}`)
		})

		w := b.do(multipartUpload(t, map[string]string{"title": "ID card"}, "card.PNG", []byte("png-bytes")))

		require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
		assert.Equal(t, studentDocumentsPath, w.Header().Get("Location"))

		mu.Lock()
		assert.Equal(t, "ID card", gotTitle)
		assert.Equal(t, "card.PNG:png-bytes", gotFile)
		assert.Equal(t, "image/png", gotType)
		mu.Unlock()

		w = b.get(studentDocumentsPath)
		assert.Contains(t, w.Body.String(), "Document uploaded successfully")
	})

	t.Run("rejects unsupported file types locally", func(t *testing.T) {
		app, b := newStudentApp(t)

		w := b.do(multipartUpload(t, map[string]string{"title": "Notes"}, "notes.txt", []byte("hello")))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "Only PDF, PNG and JPEG files are accepted")
		assert.False(t, app.service.called("POST /api/documents"))
	})

	t.Run("reports every missing field at once", func(t *testing.T) {
		_, b := newStudentApp(t)

		w := b.do(multipartUpload(t, map[string]string{}, "", nil))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "Title is required")
		assert.Contains(t, w.Body.String(), "Please choose a file to upload")
	})

	t.Run("service rejection keeps the student on the page", func(t *testing.T) {
		app, b := newStudentApp(t)
		app.service.handle("POST /api/documents", func(w http.ResponseWriter, r *http.Request) {
			writeRaw(w, http.StatusBadRequest, `{"success":false,"message":"Duplicate document"}`)
		})

		w := b.do(multipartUpload(t, map[string]string{"title": "ID card"}, "card.pdf", []byte("%PDF")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Duplicate document")
		assert.Contains(t, w.Body.String(), `value="ID card"`)
	})
}

func TestStudentDeleteDocument(t *testing.T) {
	app, b := newStudentApp(t)
	app.service.handle("DELETE /api/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeRaw(w, http.StatusOK, `{"success":true,"data":{}}`)
	})

	w := b.post("/student/documents/d1/delete", nil)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, app.service.called("DELETE /api/documents/d1"))

	w = b.get(studentDocumentsPath)
	assert.Contains(t, w.Body.String(), "Document deleted")
}

func TestStudentRequests(t *testing.T) {
	t.Run("short descriptions are rejected locally", func(t *testing.T) {
		app, b := newStudentApp(t)

		w := b.post(studentRequestsPath, url.Values{"type": {"transcript"}, "description": {"too short"}})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "Description must be at least 10 characters")
		assert.False(t, app.service.called("POST /api/requests"))
	})

	t.Run("creates a request and flashes a confirmation", func(t *testing.T) {
		app, b := newStudentApp(t)
		var got map[string]any
		app.service.handle("POST /api/requests", func(w http.ResponseWriter, r *http.Request) {
			_ = jsonDecode(r, &got)
			writeRaw(w, http.StatusCreated, `{"success":true,"data":{"_id":"r1","requestType":"transcript","status":"pending"}}`)
		})

		w := b.post(studentRequestsPath, url.Values{
			"type":        {"transcript"},
			"description": {"Official transcript for a scholarship"},
			"documentId":  {"d1"},
		})

		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "transcript", got["type"])
		assert.Equal(t, "d1", got["documentId"])

		w = b.get(studentRequestsPath)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Request submitted")
		assert.Contains(t, w.Body.String(), "Transcript", "own documents are offered for attachment")
	})
}

func TestStudentSettings(t *testing.T) {
	app, b := newStudentApp(t)
	app.service.handle("PUT /api/users/profile/update", func(w http.ResponseWriter, r *http.Request) {
		writeRaw(w, http.StatusOK, `{"success":true,"data":{"_id":"s1","name":"Asha K","email":"asha@example.edu","role":"admin","isActive":true}}`)
	})
	app.service.handle("PUT /api/auth/updatepassword", func(w http.ResponseWriter, r *http.Request) {
		writeRaw(w, http.StatusUnauthorized, `{"success":false,"message":"Current password is incorrect"}`)
	})

	t.Run("profile update refreshes the session but never the role", func(t *testing.T) {
		w := b.post("/student/settings/profile", url.Values{"name": {"Asha K"}, "email": {"asha@example.edu"}, "year": {"3"}})
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/student/settings", w.Header().Get("Location"))

		w = b.get("/student/settings")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Profile updated")
		assert.Contains(t, w.Body.String(), "Asha K")
		assert.Equal(t, "student", b.cookies["userRole"])
	})

	t.Run("invalid year is caught locally", func(t *testing.T) {
		w := b.post("/student/settings/profile", url.Values{"name": {"Asha"}, "email": {"asha@example.edu"}, "year": {"12"}})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "Year must be a number between 1 and 10")
	})

	t.Run("a wrong current password signs the user out", func(t *testing.T) {
		w := b.post("/student/settings/password", url.Values{
			"currentPassword": {"nope"},
			"newPassword":     {"newpass1"},
			"confirmPassword": {"newpass1"},
		})
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})
}
