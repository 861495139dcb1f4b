package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/docsafe/internal/api"
	"github.com/mrlokans/docsafe/internal/entities"
	apperrors "github.com/mrlokans/docsafe/internal/errors"
	"github.com/mrlokans/docsafe/internal/forms"
)

const (
	studentDocumentsPath = "/student/documents"
	studentRequestsPath  = "/student/requests"

	recentItems = 5

	// Request body caps, enforced by security.BodyLimit ahead of CSRF parsing.
	uploadBodyLimit = forms.MaxUploadSize + 1<<20
	formBodyLimit   = 1 << 20
)

var (
	documentStatuses = []string{string(entities.DocumentPending), string(entities.DocumentVerified), string(entities.DocumentRejected)}
	requestStatuses  = []string{string(entities.RequestPending), string(entities.RequestInProgress), string(entities.RequestApproved), string(entities.RequestRejected)}
)

// StudentController serves the /student pages.
type StudentController struct {
	*views
	api *api.Client
}

func NewStudentController(v *views, client *api.Client) *StudentController {
	return &StudentController{views: v, api: client}
}

// Dashboard shows the student's counters and most recent activity.
func (ctrl *StudentController) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	render := func(status int, extra gin.H) {
		ctrl.html(c, status, "student_dashboard", "Dashboard", extra)
	}

	docs, err := ctrl.api.Documents.Mine(ctx, api.Filter{Limit: statsSampleLimit})
	if err != nil {
		ctrl.respondAPIError(c, err, emptyDashboard(render))
		return
	}
	reqs, err := ctrl.api.Requests.Mine(ctx, api.Filter{Limit: statsSampleLimit})
	if err != nil {
		ctrl.respondAPIError(c, err, emptyDashboard(render))
		return
	}

	var stats entities.Statistics
	stats.CountDocuments(docs.Data)
	stats.CountRequests(reqs.Data)
	if docs.Pagination.TotalItems > stats.TotalDocuments {
		stats.TotalDocuments = docs.Pagination.TotalItems
	}

	render(http.StatusOK, gin.H{
		"Stats":     stats,
		"Documents": firstN(docs.Data, recentItems),
		"Requests":  firstN(reqs.Data, recentItems),
	})
}

func emptyDashboard(render func(int, gin.H)) func(int, gin.H) {
	return func(status int, extra gin.H) {
		extra["Stats"] = entities.Statistics{}
		render(status, extra)
	}
}

// Documents lists the student's uploads with the upload form.
func (ctrl *StudentController) Documents(c *gin.Context) {
	ctrl.documentsPage(c, http.StatusOK, gin.H{"Form": forms.DocumentForm{}})
}

func (ctrl *StudentController) documentsPage(c *gin.Context, status int, extra gin.H) {
	filter := listFilter(c, defaultPageSize)
	filter.Search, filter.Role = "", ""

	page, err := ctrl.api.Documents.Mine(c.Request.Context(), filter)
	if err != nil {
		if apperrors.Handled(err) {
			return
		}
		page = &api.Page[entities.Document]{}
		if _, ok := extra["Error"]; !ok {
			extra["Error"] = bannerMessage(err)
		}
	}

	extra["Documents"] = page.Data
	extra["Pagination"] = page.Pagination
	extra["Query"] = pagerQuery(filter)
	extra["Filter"] = filter
	extra["Statuses"] = documentStatuses
	ctrl.html(c, status, "student_documents", "My documents", extra)
}

// Upload validates the form and the file locally, then forwards both to the
// document service as multipart/form-data.
func (ctrl *StudentController) Upload(c *gin.Context) {
	var form forms.DocumentForm
	_ = c.ShouldBind(&form)

	rerender := func(status int, extra gin.H) {
		extra["Form"] = form
		ctrl.documentsPage(c, status, extra)
	}

	fields := map[string]string{}
	if err := forms.Validate(form); err != nil {
		for k, v := range apperrors.FieldErrors(err) {
			fields[k] = v
		}
	}

	fh, err := c.FormFile("file")
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		fields["file"] = "File must be 10 MB or smaller"
	}
	contentType, err := forms.CheckUpload(fh)
	if err != nil {
		if _, set := fields["file"]; !set {
			fields["file"] = apperrors.FieldErrors(err)["file"]
		}
	}
	if len(fields) > 0 {
		ctrl.respondAPIError(c, apperrors.Validation(fields), rerender)
		return
	}

	file, err := fh.Open()
	if err != nil {
		ctrl.respondAPIError(c, apperrors.Wrap(apperrors.KindValidation, err, "The uploaded file could not be read"), rerender)
		return
	}
	defer file.Close()

	logger := zerolog.Ctx(c.Request.Context())
	doc, err := ctrl.api.Documents.Upload(c.Request.Context(), api.UploadInput{
		Title:       form.Title,
		Description: form.Description,
		FileName:    fh.Filename,
		ContentType: contentType,
		File:        file,
	}, func(percent int) {
		logger.Trace().Int("percent", percent).Msg("upload progress")
	})
	if err != nil {
		ctrl.respondAPIError(c, err, rerender)
		return
	}

	logger.Info().Str("document_id", doc.ID).Int64("size", fh.Size).Msg("document uploaded")
	ctrl.success(c, studentDocumentsPath, "Document uploaded successfully")
}

// DeleteDocument removes one of the student's pending documents.
func (ctrl *StudentController) DeleteDocument(c *gin.Context) {
	if err := ctrl.api.Documents.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if apperrors.Handled(err) {
			return
		}
		ctrl.failure(c, studentDocumentsPath, err)
		return
	}
	ctrl.success(c, studentDocumentsPath, "Document deleted")
}

// Requests lists the student's requests with the new-request form.
func (ctrl *StudentController) Requests(c *gin.Context) {
	ctrl.requestsPage(c, http.StatusOK, gin.H{"Form": forms.RequestForm{}})
}

func (ctrl *StudentController) requestsPage(c *gin.Context, status int, extra gin.H) {
	ctx := c.Request.Context()
	filter := listFilter(c, defaultPageSize)
	filter.Search, filter.Role = "", ""

	page, err := ctrl.api.Requests.Mine(ctx, filter)
	if err != nil {
		if apperrors.Handled(err) {
			return
		}
		page = &api.Page[entities.Request]{}
		if _, ok := extra["Error"]; !ok {
			extra["Error"] = bannerMessage(err)
		}
	}

	var mine []entities.Document
	if docs, err := ctrl.api.Documents.Mine(ctx, api.Filter{Limit: statsSampleLimit}); err == nil {
		mine = docs.Data
	} else if apperrors.Handled(err) {
		return
	}

	extra["Requests"] = page.Data
	extra["Pagination"] = page.Pagination
	extra["Query"] = pagerQuery(filter)
	extra["Filter"] = filter
	extra["MyDocuments"] = mine
	ctrl.html(c, status, "student_requests", "My requests", extra)
}

func (ctrl *StudentController) CreateRequest(c *gin.Context) {
	var form forms.RequestForm
	_ = c.ShouldBind(&form)

	rerender := func(status int, extra gin.H) {
		extra["Form"] = form
		ctrl.requestsPage(c, status, extra)
	}

	if err := forms.Validate(form); err != nil {
		ctrl.respondAPIError(c, err, rerender)
		return
	}

	_, err := ctrl.api.Requests.Create(c.Request.Context(), api.RequestInput{
		Type:        form.Type,
		Description: form.Description,
		DocumentID:  form.DocumentID,
	})
	if err != nil {
		ctrl.respondAPIError(c, err, rerender)
		return
	}
	ctrl.success(c, studentRequestsPath, "Request submitted")
}

func firstN[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
