package forms

import (
	"strconv"
	"strings"

	"github.com/mrlokans/docsafe/internal/api"
	"github.com/mrlokans/docsafe/internal/entities"
)

type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
}

func (f LoginForm) Input() api.LoginInput {
	return api.LoginInput{Email: strings.TrimSpace(f.Email), Password: f.Password}
}

type SignupForm struct {
	Name             string `form:"name" validate:"required,min=2"`
	Email            string `form:"email" validate:"required,email"`
	Password         string `form:"password" validate:"required,min=6"`
	ConfirmPassword  string `form:"confirmPassword" validate:"eqfield=Password"`
	EnrollmentNumber string `form:"enrollmentNumber" validate:"omitempty,max=50"`
	Course           string `form:"course" validate:"omitempty,max=100"`
	Year             string `form:"year" validate:"omitempty,academic_year"`
}

// Input builds the registration payload. Self-registration is always a student.
func (f SignupForm) Input() api.RegisterInput {
	year, _ := strconv.Atoi(f.Year)
	return api.RegisterInput{
		Name:             strings.TrimSpace(f.Name),
		Email:            strings.TrimSpace(f.Email),
		Password:         f.Password,
		Role:             string(entities.RoleStudent),
		EnrollmentNumber: strings.TrimSpace(f.EnrollmentNumber),
		Course:           strings.TrimSpace(f.Course),
		Year:             year,
	}
}

type ChangePasswordForm struct {
	CurrentPassword string `form:"currentPassword" validate:"required"`
	NewPassword     string `form:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `form:"confirmPassword" validate:"eqfield=NewPassword"`
}

type ForgotPasswordForm struct {
	Email string `form:"email" validate:"required,email"`
}

type ResetPasswordForm struct {
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirmPassword" validate:"eqfield=Password"`
}

type ProfileForm struct {
	Name             string `form:"name" validate:"required,min=2"`
	Email            string `form:"email" validate:"required,email"`
	EnrollmentNumber string `form:"enrollmentNumber" validate:"omitempty,max=50"`
	Course           string `form:"course" validate:"omitempty,max=100"`
	Year             string `form:"year" validate:"omitempty,academic_year"`
}

func (f ProfileForm) Input() api.ProfileUpdate {
	year, _ := strconv.Atoi(f.Year)
	return api.ProfileUpdate{
		Name:             strings.TrimSpace(f.Name),
		Email:            strings.TrimSpace(f.Email),
		EnrollmentNumber: strings.TrimSpace(f.EnrollmentNumber),
		Course:           strings.TrimSpace(f.Course),
		Year:             year,
	}
}
