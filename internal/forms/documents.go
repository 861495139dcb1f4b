package forms

import (
	"mime/multipart"
	"path/filepath"
	"strings"

	apperrors "github.com/mrlokans/docsafe/internal/errors"
)

// MaxUploadSize is the largest document accepted for upload.
const MaxUploadSize = 10 << 20

// allowedTypes maps accepted extensions to the content type sent upstream.
var allowedTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

type DocumentForm struct {
	Title       string `form:"title" validate:"required,max=200"`
	Description string `form:"description" validate:"omitempty,max=1000"`
}

// CheckUpload validates the uploaded file and returns its content type.
func CheckUpload(fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", apperrors.Validation(map[string]string{"file": "Please choose a file to upload"})
	}
	if fh.Size > MaxUploadSize {
		return "", apperrors.Validation(map[string]string{"file": "File must be 10 MB or smaller"})
	}
	contentType, ok := allowedTypes[strings.ToLower(filepath.Ext(fh.Filename))]
	if !ok {
		return "", apperrors.Validation(map[string]string{"file": "Only PDF, PNG and JPEG files are accepted"})
	}
	return contentType, nil
}

type RequestForm struct {
	Type        string `form:"type" validate:"required,max=100"`
	Description string `form:"description" validate:"required,min=10,max=1000"`
	DocumentID  string `form:"documentId" validate:"omitempty,max=64"`
}

// RejectForm carries the reason for rejecting a document or request.
type RejectForm struct {
	Reason string `form:"reason" validate:"required,max=500"`
}

// RemarksForm carries optional remarks for verify, approve and complete.
type RemarksForm struct {
	Remarks string `form:"remarks" validate:"omitempty,max=500"`
}
