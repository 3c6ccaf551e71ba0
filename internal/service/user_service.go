package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/hms-api/internal/dto"
	"github.com/noah-isme/hms-api/internal/models"
	"github.com/noah-isme/hms-api/internal/repository"
	appErrors "github.com/noah-isme/hms-api/pkg/errors"
	"github.com/noah-isme/hms-api/pkg/mailer"
	"github.com/noah-isme/hms-api/pkg/sheet"
)

const defaultBcryptCost = 10

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	SetPassword(ctx context.Context, id, passwordHash string, verify bool) error
	Delete(ctx context.Context, id string) (bool, error)
}

type tokenIssuer interface {
	Issue(userID string, purpose models.TokenPurpose) (string, time.Time, error)
	Verify(token string, purposes ...models.TokenPurpose) (*models.TokenClaims, error)
	TTL(purpose models.TokenPurpose) time.Duration
}

type userMetrics interface {
	RecordLogin(result string)
	RecordNotification(purpose, status string)
	RecordImportedUsers(n int)
}

// UserServiceConfig carries the settings the lifecycle flows depend on.
type UserServiceConfig struct {
	FrontendURL string
	MaxBulkRows int
	BcryptCost  int
}

// UserService implements registration, password lifecycle and user management.
type UserService struct {
	repo      userRepository
	tokens    tokenIssuer
	mail      mailer.Sender
	audit     auditLogger
	validator *validator.Validate
	metrics   userMetrics
	logger    *zap.Logger
	cfg       UserServiceConfig
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, tokens tokenIssuer, mail mailer.Sender, audit auditLogger, validate *validator.Validate, logger *zap.Logger, cfg UserServiceConfig) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mail == nil {
		mail = mailer.NewLogSender(logger)
	}
	if cfg.MaxBulkRows <= 0 {
		cfg.MaxBulkRows = 10
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = defaultBcryptCost
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	return &UserService{
		repo:      repo,
		tokens:    tokens,
		mail:      mail,
		audit:     audit,
		validator: newValidator(validate),
		logger:    logger,
		cfg:       cfg,
	}
}

// WithMetrics attaches counters for logins and link emails.
func (s *UserService) WithMetrics(m userMetrics) *UserService {
	s.metrics = m
	return s
}

func (s *UserService) recordLogin(result string) {
	if s.metrics != nil {
		s.metrics.RecordLogin(result)
	}
}

// Register creates a user with no password and emails a setup link. A failed
// email does not fail the registration; the outcome is returned and audited.
func (s *UserService) Register(ctx context.Context, req dto.RegisterRequest, meta models.RequestMeta) (*dto.RegisterResult, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Address = strings.TrimSpace(req.Address)
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	user, err := s.newUser(req)
	if err != nil {
		return nil, err
	}
	if err := s.create(ctx, user); err != nil {
		return nil, err
	}

	outcome := s.sendSetupLink(ctx, user)
	recordAudit(ctx, s.audit, s.logger, models.AuditActionUserRegister, user.ID, meta, map[string]interface{}{
		"email":        user.Email,
		"role":         user.Role,
		"notification": outcome.Audit(),
	})

	return &dto.RegisterResult{User: dto.NewUserResponse(user), Notification: outcome}, nil
}

// BulkImport creates users from the first sheet of a CSV, XLS or XLSX file.
// Rows without an email are ignored; other rows that cannot be created are
// reported in Skipped while the import continues.
func (s *UserService) BulkImport(ctx context.Context, data []byte, meta models.RequestMeta) (*dto.BulkImportResult, error) {
	records, err := sheet.Read(data)
	if err != nil {
		if errors.Is(err, sheet.ErrEmpty) {
			return nil, invalid("spreadsheet is empty")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unable to read spreadsheet")
	}
	if len(records) > s.cfg.MaxBulkRows {
		return nil, invalid(fmt.Sprintf("Max %d users allowed", s.cfg.MaxBulkRows))
	}

	result := &dto.BulkImportResult{Skipped: make([]dto.SkippedRow, 0)}
	notifications := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		email := normalizeEmail(rec.Get("email"))
		if email == "" {
			continue
		}

		req := dto.RegisterRequest{
			FirstName:   rec.Get("firstName"),
			LastName:    rec.Get("lastName"),
			Email:       email,
			Address:     rec.Get("address"),
			Role:        models.UserRole(rec.Get("role")),
			PhoneNumber: rec.Get("phoneNumber"),
			Course:      rec.Get("course"),
			Year:        rec.Get("year"),
		}
		user, err := s.importRow(ctx, req)
		if err != nil {
			result.Skipped = append(result.Skipped, dto.SkippedRow{Row: rec.Line, Email: email, Reason: appErrors.FromError(err).Message})
			continue
		}

		result.Count++
		outcome := s.sendSetupLink(ctx, user)
		if outcome.Sent() {
			result.NotificationsSent++
		}
		notifications = append(notifications, map[string]interface{}{
			"userId":       user.ID,
			"email":        user.Email,
			"notification": outcome.Audit(),
		})
	}

	if s.metrics != nil {
		s.metrics.RecordImportedUsers(result.Count)
	}
	recordAudit(ctx, s.audit, s.logger, models.AuditActionUserBulkImport, "", meta, map[string]interface{}{
		"rows":          len(records),
		"count":         result.Count,
		"skipped":       result.Skipped,
		"notifications": notifications,
	})

	return result, nil
}

func (s *UserService) importRow(ctx context.Context, req dto.RegisterRequest) (*models.User, error) {
	if !validEmail(req.Email) {
		return nil, invalid("please enter a valid email")
	}
	user, err := s.newUser(req)
	if err != nil {
		return nil, err
	}
	if err := s.create(ctx, user); err != nil {
		if !errors.Is(err, appErrors.ErrConflict) {
			s.logger.Warn("bulk import row failed", zap.String("email", req.Email), zap.Error(err))
		}
		return nil, err
	}
	return user, nil
}

// SetPassword redeems a setup token, marking the password set and the email verified.
func (s *UserService) SetPassword(ctx context.Context, req dto.SetPasswordRequest, meta models.RequestMeta) error {
	return s.redeem(ctx, req, models.PurposeSetup, meta)
}

// ResetPassword redeems a reset token. The email verification flag is left as is.
func (s *UserService) ResetPassword(ctx context.Context, req dto.SetPasswordRequest, meta models.RequestMeta) error {
	return s.redeem(ctx, req, models.PurposeReset, meta)
}

func (s *UserService) redeem(ctx context.Context, req dto.SetPasswordRequest, purpose models.TokenPurpose, meta models.RequestMeta) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	claims, err := s.tokens.Verify(req.Token, purpose)
	if err != nil {
		return err
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return err
	}

	verify := purpose == models.PurposeSetup
	if err := s.repo.SetPassword(ctx, claims.UserID(), hash, verify); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInvalidToken, "")
		}
		return appErrors.Upstream(err, "failed to store password")
	}

	action := models.AuditActionPasswordSet
	if purpose == models.PurposeReset {
		action = models.AuditActionPasswordReset
	}
	recordAudit(ctx, s.audit, s.logger, action, claims.UserID(), meta, map[string]interface{}{"emailVerified": verify})
	return nil
}

// Login checks credentials and issues a session token.
func (s *UserService) Login(ctx context.Context, req dto.LoginRequest, meta models.RequestMeta) (*dto.LoginResult, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.recordLogin("not_found")
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Upstream(err, "failed to fetch user")
	}

	if !user.PasswordSet || user.PasswordHash == nil {
		s.recordLogin("password_not_set")
		return nil, appErrors.ErrPasswordNotSet
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		s.recordLogin("invalid_credentials")
		return nil, appErrors.ErrInvalidCredentials
	}
	if user.Status == models.StatusInactive {
		s.recordLogin("inactive")
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account is inactive")
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, models.PurposeSession)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session token")
	}

	s.recordLogin("success")
	recordAudit(ctx, s.audit, s.logger, models.AuditActionLogin, user.ID, meta, map[string]interface{}{"status": "success"})

	return &dto.LoginResult{Token: token, ExpiresAt: expiresAt, User: dto.NewUserResponse(user)}, nil
}

// ForgotPassword emails a reset link to a registered address.
func (s *UserService) ForgotPassword(ctx context.Context, req dto.ForgotPasswordRequest, meta models.RequestMeta) (*dto.ForgotPasswordResult, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "email not found")
		}
		return nil, appErrors.Upstream(err, "failed to fetch user")
	}

	outcome := s.sendLink(ctx, user, models.PurposeReset)
	recordAudit(ctx, s.audit, s.logger, models.AuditActionPasswordResetRequest, user.ID, meta, map[string]interface{}{"notification": outcome.Audit()})

	return &dto.ForgotPasswordResult{Notification: outcome}, nil
}

// VerifyToken checks any issued token and returns the user it refers to.
func (s *UserService) VerifyToken(ctx context.Context, token string) (*dto.VerifyTokenResult, error) {
	if strings.TrimSpace(token) == "" {
		return nil, invalid("token is required")
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidToken, "")
		}
		return nil, appErrors.Upstream(err, "failed to load user")
	}
	return &dto.VerifyTokenResult{Purpose: claims.Purpose, User: dto.NewUserResponse(user)}, nil
}

// Authenticate resolves the user behind a session token.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Verify(token, models.PurposeSession)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidToken, "")
		}
		return nil, appErrors.Upstream(err, "failed to load user")
	}
	return user, nil
}

// List returns every user, newest first.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Upstream(err, "failed to list users")
	}
	return users, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Upstream(err, "failed to load user")
	}
	return user, nil
}

// Update applies a partial update. A supplied password is re-hashed and marks
// the password as set.
func (s *UserService) Update(ctx context.Context, id string, req dto.UpdateUserRequest, meta models.RequestMeta) (*models.User, error) {
	if req.Email != nil {
		normalized := normalizeEmail(*req.Email)
		req.Email = &normalized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := make([]string, 0, 10)
	required := []struct {
		name  string
		value *string
		dest  *string
	}{
		{"firstName", req.FirstName, &user.FirstName},
		{"lastName", req.LastName, &user.LastName},
		{"email", req.Email, &user.Email},
		{"address", req.Address, &user.Address},
	}
	for _, field := range required {
		if field.value == nil {
			continue
		}
		value := strings.TrimSpace(*field.value)
		if value == "" {
			return nil, invalid(field.name + " cannot be empty")
		}
		*field.dest = value
		changed = append(changed, field.name)
	}

	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, invalid("status must be one of active, inactive, pending")
		}
		user.Status = *req.Status
		changed = append(changed, "status")
	}

	if req.Role != nil || req.PhoneNumber != nil || req.Course != nil || req.Year != nil {
		role, phone, course, year := user.Role, user.PhoneNumber, user.Course, user.Year
		var studentFields []string
		if req.Role != nil {
			role = *req.Role
			changed = append(changed, "role")
		}
		if req.PhoneNumber != nil {
			phone = strings.TrimSpace(*req.PhoneNumber)
			studentFields = append(studentFields, "phoneNumber")
		}
		if req.Course != nil {
			course = strings.TrimSpace(*req.Course)
			studentFields = append(studentFields, "course")
		}
		if req.Year != nil {
			year = strings.TrimSpace(*req.Year)
			studentFields = append(studentFields, "year")
		}
		profile, err := models.NewRoleProfile(role, phone, course, year)
		if err != nil {
			return nil, invalid(err.Error())
		}
		user.ApplyProfile(profile)
		// Student columns only stick on student profiles.
		if _, ok := profile.(models.StudentProfile); ok {
			changed = append(changed, studentFields...)
		}
	}

	if req.Password != nil {
		if *req.Password == "" {
			return nil, invalid("password cannot be empty")
		}
		hash, err := s.hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = &hash
		user.PasswordSet = true
		changed = append(changed, "password")
	}

	if err := s.repo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Upstream(err, "failed to update user")
	}

	recordAudit(ctx, s.audit, s.logger, models.AuditActionUserUpdate, user.ID, meta, map[string]interface{}{"fields": changed})
	return user, nil
}

// Delete removes a user. Deleting an unknown id succeeds.
func (s *UserService) Delete(ctx context.Context, id string, meta models.RequestMeta) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	existed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Upstream(err, "failed to delete user")
	}
	if existed {
		recordAudit(ctx, s.audit, s.logger, models.AuditActionUserDelete, id, meta, nil)
	}
	return nil
}

func (s *UserService) newUser(req dto.RegisterRequest) (*models.User, error) {
	profile, err := models.NewRoleProfile(req.Role, strings.TrimSpace(req.PhoneNumber), strings.TrimSpace(req.Course), strings.TrimSpace(req.Year))
	if err != nil {
		return nil, invalid(err.Error())
	}
	user := &models.User{
		ID:        uuid.NewString(),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     req.Email,
		Address:   strings.TrimSpace(req.Address),
		Status:    models.StatusPending,
	}
	user.ApplyProfile(profile)
	return user, nil
}

func (s *UserService) create(ctx context.Context, user *models.User) error {
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return appErrors.Upstream(err, "failed to create user")
	}
	return nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	return string(hash), nil
}

func (s *UserService) sendSetupLink(ctx context.Context, user *models.User) mailer.Outcome {
	return s.sendLink(ctx, user, models.PurposeSetup)
}

// sendLink issues a token for purpose and emails the matching frontend link.
func (s *UserService) sendLink(ctx context.Context, user *models.User, purpose models.TokenPurpose) mailer.Outcome {
	token, _, err := s.tokens.Issue(user.ID, purpose)
	if err != nil {
		s.logger.Error("failed to issue token", zap.String("user_id", user.ID), zap.String("purpose", string(purpose)), zap.Error(err))
		return mailer.Outcome{Status: mailer.StatusFailed, Reason: mailer.ReasonDeliveryFailed, Detail: "token could not be issued"}
	}

	data := mailer.LinkEmail{Name: user.FullName(), Validity: humanDuration(s.tokens.TTL(purpose))}
	var (
		subject string
		body    string
	)
	switch purpose {
	case models.PurposeReset:
		data.Link = fmt.Sprintf("%s/reset-password?token=%s", s.cfg.FrontendURL, url.QueryEscape(token))
		subject = mailer.ResetPasswordSubject
		body, err = mailer.ResetPasswordEmail(data)
	default:
		data.Link = fmt.Sprintf("%s/set-password?token=%s", s.cfg.FrontendURL, url.QueryEscape(token))
		subject = mailer.SetPasswordSubject
		body, err = mailer.SetPasswordEmail(data)
	}
	if err != nil {
		s.logger.Error("failed to render email", zap.String("user_id", user.ID), zap.Error(err))
		return mailer.Outcome{Status: mailer.StatusFailed, Reason: mailer.ReasonDeliveryFailed, Detail: "email could not be rendered"}
	}

	outcome := s.mail.Send(ctx, user.Email, subject, body)
	if s.metrics != nil {
		s.metrics.RecordNotification(string(purpose), string(outcome.Status))
	}
	if !outcome.Sent() {
		s.logger.Warn("link email not delivered",
			zap.String("user_id", user.ID),
			zap.String("purpose", string(purpose)),
			zap.String("detail", outcome.Detail),
		)
	}
	return outcome
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
