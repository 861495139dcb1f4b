package http

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/docsafe/internal/api"
	"github.com/mrlokans/docsafe/internal/database/audit"
	"github.com/mrlokans/docsafe/internal/entities"
	apperrors "github.com/mrlokans/docsafe/internal/errors"
)

// Report types.
const (
	ReportDocuments = "documents"
	ReportUsers     = "users"
	ReportActivity  = "activity"
)

var (
	reportTypes = []string{ReportDocuments, ReportUsers, ReportActivity}

	timeRanges     = []string{"week", "month", "quarter", "year"}
	timeRangeDays  = map[string]int{"week": 7, "month": 30, "quarter": 90, "year": 365}
	reportTitles   = map[string]string{ReportDocuments: "Document verification", ReportUsers: "User accounts", ReportActivity: "Sign-in activity"}
	errNoAuditData = apperrors.New(apperrors.KindValidation, "Activity reports need the audit trail to be enabled")
)

// ReportTotal is one headline number of a report.
type ReportTotal struct {
	Label string
	Count int
}

// Report is a tabular summary of one resource family over a time range.
type Report struct {
	Type   string
	Range  string
	Title  string
	Since  time.Time
	Totals []ReportTotal
	Header []string
	Rows   [][]string
}

// ReportsController serves the admin reports page and its CSV export.
type ReportsController struct {
	*views
	api     *api.Client
	auditor AuditLog
	now     func() time.Time
}

func NewReportsController(v *views, client *api.Client, auditor AuditLog) *ReportsController {
	return &ReportsController{views: v, api: client, auditor: auditor, now: time.Now}
}

// reportParams reads and normalises the report type and time range.
func reportParams(c *gin.Context) (string, string) {
	typ := c.DefaultQuery("type", ReportDocuments)
	if _, ok := reportTitles[typ]; !ok {
		typ = ReportDocuments
	}
	rng := c.DefaultQuery("range", "month")
	if _, ok := timeRangeDays[rng]; !ok {
		rng = "month"
	}
	return typ, rng
}

func (ctrl *ReportsController) Page(c *gin.Context) {
	typ, rng := reportParams(c)
	extra := gin.H{"ReportTypes": reportTypes, "TimeRanges": timeRanges}

	report, err := ctrl.build(c.Request.Context(), typ, rng)
	if err != nil {
		ctrl.respondAPIError(c, err, func(status int, h gin.H) {
			h["Report"] = Report{Type: typ, Range: rng, Title: reportTitles[typ]}
			ctrl.html(c, status, "admin_reports", "Reports", merge(extra, h))
		})
		return
	}
	extra["Report"] = report
	ctrl.html(c, http.StatusOK, "admin_reports", "Reports", extra)
}

// Export streams the report as CSV.
func (ctrl *ReportsController) Export(c *gin.Context) {
	typ, rng := reportParams(c)
	report, err := ctrl.build(c.Request.Context(), typ, rng)
	if err != nil {
		if apperrors.Handled(err) {
			return
		}
		ctrl.failure(c, "/admin/reports", err)
		return
	}

	filename := fmt.Sprintf("docsafe-%s-%s-%s.csv", typ, rng, ctrl.now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Status(http.StatusOK)

	if err := writeReportCSV(c.Writer, report); err != nil {
		_ = c.Error(err)
	}
}

func writeReportCSV(w io.Writer, report Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(report.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(report.Rows); err != nil {
		return err
	}
	return cw.Error()
}

func (ctrl *ReportsController) build(ctx context.Context, typ, rng string) (Report, error) {
	since := ctrl.now().AddDate(0, 0, -timeRangeDays[rng])
	report := Report{Type: typ, Range: rng, Title: reportTitles[typ], Since: since}

	var err error
	switch typ {
	case ReportUsers:
		err = ctrl.usersReport(ctx, &report)
	case ReportActivity:
		err = ctrl.activityReport(ctx, &report)
	default:
		err = ctrl.documentsReport(ctx, &report)
	}
	return report, err
}

func (ctrl *ReportsController) documentsReport(ctx context.Context, r *Report) error {
	page, err := ctrl.api.Documents.List(ctx, api.Filter{Limit: statsSampleLimit})
	if err != nil {
		return err
	}

	var inRange []entities.Document
	for _, d := range page.Data {
		if !d.CreatedAt.Before(r.Since) {
			inRange = append(inRange, d)
		}
	}
	var stats entities.Statistics
	stats.CountDocuments(inRange)

	r.Totals = []ReportTotal{
		{Label: "Uploaded", Count: stats.TotalDocuments},
		{Label: "Pending", Count: stats.PendingDocuments},
		{Label: "Verified", Count: stats.VerifiedDocuments},
		{Label: "Rejected", Count: stats.RejectedDocuments},
		{Label: "Verification rate %", Count: stats.VerificationRate()},
	}
	r.Header = []string{"Title", "Student", "Email", "Enrollment", "Status", "Size (bytes)", "Uploaded"}
	for _, d := range inRange {
		r.Rows = append(r.Rows, []string{
			d.Title, d.UserName, d.UserEmail, d.EnrollmentNumber, string(d.Status),
			strconv.FormatInt(d.FileSize, 10), d.CreatedAt.Format(time.RFC3339),
		})
	}
	return nil
}

func (ctrl *ReportsController) usersReport(ctx context.Context, r *Report) error {
	page, err := ctrl.api.Users.List(ctx, api.Filter{Limit: statsSampleLimit})
	if err != nil {
		return err
	}

	var joined []entities.Identity
	active := 0
	for _, u := range page.Data {
		if u.CreatedAt.Before(r.Since) {
			continue
		}
		joined = append(joined, u)
		if u.IsActive {
			active++
		}
	}
	var stats entities.Statistics
	stats.CountUsers(joined)

	r.Totals = []ReportTotal{
		{Label: "New accounts", Count: stats.TotalUsers},
		{Label: "Students", Count: stats.TotalStudents},
		{Label: "Admins", Count: stats.TotalUsers - stats.TotalStudents},
		{Label: "Active", Count: active},
	}
	r.Header = []string{"Name", "Email", "Role", "Enrollment", "Course", "Year", "Active", "Joined"}
	for _, u := range joined {
		year := ""
		if u.Year > 0 {
			year = strconv.Itoa(u.Year)
		}
		r.Rows = append(r.Rows, []string{
			u.Name, u.Email, string(u.Role), u.EnrollmentNumber, u.Course, year,
			strconv.FormatBool(u.IsActive), u.CreatedAt.Format(time.RFC3339),
		})
	}
	return nil
}

// activityReport reads the local audit trail, not the document service.
func (ctrl *ReportsController) activityReport(ctx context.Context, r *Report) error {
	if ctrl.auditor == nil {
		return errNoAuditData
	}

	summary, err := ctrl.auditor.Summary(ctx, ctrl.now().Sub(r.Since))
	if err != nil {
		return apperrors.Wrap(apperrors.KindStorage, err, "Failed to read the audit trail")
	}
	for _, typ := range []entities.AuthEventType{
		entities.AuthEventLogin,
		entities.AuthEventLoginFailed,
		entities.AuthEventSignup,
		entities.AuthEventLogout,
		entities.AuthEventForcedLogout,
		entities.AuthEventHydrateFailed,
	} {
		r.Totals = append(r.Totals, ReportTotal{Label: string(typ), Count: int(summary[typ])})
	}

	events, _, err := ctrl.auditor.GetEvents(ctx, audit.Filter{Limit: statsSampleLimit})
	if err != nil {
		return apperrors.Wrap(apperrors.KindStorage, err, "Failed to read the audit trail")
	}
	r.Header = []string{"Time", "Event", "Status", "User ID", "Email", "Role", "IP address"}
	for _, e := range events {
		if e.CreatedAt.Before(r.Since) {
			continue
		}
		r.Rows = append(r.Rows, []string{
			e.CreatedAt.Format(time.RFC3339), string(e.EventType), string(e.Status),
			e.UserID, e.Email, string(e.Role), e.IPAddress,
		})
	}
	return nil
}
