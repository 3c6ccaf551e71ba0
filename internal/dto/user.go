package dto

import (
	"time"

	"github.com/noah-isme/hms-api/internal/models"
	"github.com/noah-isme/hms-api/pkg/mailer"
)

// RegisterRequest is the payload for a single registration.
type RegisterRequest struct {
	FirstName   string          `json:"firstName" validate:"required"`
	LastName    string          `json:"lastName" validate:"required"`
	Email       string          `json:"email" validate:"required,account_email"`
	Address     string          `json:"address" validate:"required"`
	Role        models.UserRole `json:"role"`
	PhoneNumber string          `json:"phoneNumber"`
	Course      string          `json:"course"`
	Year        string          `json:"year"`
}

// SetPasswordRequest redeems a setup or reset token.
type SetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest starts the reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

// UpdateUserRequest is a partial update; nil fields are left untouched.
type UpdateUserRequest struct {
	FirstName   *string               `json:"firstName"`
	LastName    *string               `json:"lastName"`
	Email       *string               `json:"email" validate:"omitempty,account_email"`
	Address     *string               `json:"address"`
	Role        *models.UserRole      `json:"role"`
	Status      *models.AccountStatus `json:"status"`
	PhoneNumber *string               `json:"phoneNumber"`
	Course      *string               `json:"course"`
	Year        *string               `json:"year"`
	Password    *string               `json:"password" validate:"omitempty,max=72"`
}

// UserResponse is the public view of a user. The password hash is never exposed.
type UserResponse struct {
	ID            string               `json:"id"`
	FirstName     string               `json:"firstName"`
	LastName      string               `json:"lastName"`
	Email         string               `json:"email"`
	Address       string               `json:"address"`
	Role          models.UserRole      `json:"role"`
	Status        models.AccountStatus `json:"status"`
	PhoneNumber   string               `json:"phoneNumber,omitempty"`
	Course        string               `json:"course,omitempty"`
	Year          string               `json:"year,omitempty"`
	PasswordSet   bool                 `json:"passwordSet"`
	EmailVerified bool                 `json:"emailVerified"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// NewUserResponse maps a stored user to its public view.
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		Address:       u.Address,
		Role:          u.Role,
		Status:        u.Status,
		PhoneNumber:   u.PhoneNumber,
		Course:        u.Course,
		Year:          u.Year,
		PasswordSet:   u.PasswordSet,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// NewUserResponses maps a list of users.
func NewUserResponses(users []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

// RegisterResult reports the created user and how the setup email went.
type RegisterResult struct {
	User         UserResponse   `json:"user"`
	Notification mailer.Outcome `json:"notification"`
}

// SkippedRow describes a spreadsheet row that did not produce a user.
type SkippedRow struct {
	Row    int    `json:"row"`
	Email  string `json:"email,omitempty"`
	Reason string `json:"reason"`
}

// BulkImportResult summarises an import. Count is the number of users created.
type BulkImportResult struct {
	Count             int          `json:"count"`
	NotificationsSent int          `json:"notificationsSent"`
	Skipped           []SkippedRow `json:"skipped"`
}

// LoginResult returns the session token and the authenticated user.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// ForgotPasswordResult reports the delivery of the reset email.
type ForgotPasswordResult struct {
	Notification mailer.Outcome `json:"notification"`
}

// VerifyTokenResult describes a valid token.
type VerifyTokenResult struct {
	Purpose models.TokenPurpose `json:"purpose"`
	User    UserResponse        `json:"user"`
}
