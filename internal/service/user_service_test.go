package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/hms-api/internal/dto"
	"github.com/noah-isme/hms-api/internal/models"
	"github.com/noah-isme/hms-api/internal/repository"
	appErrors "github.com/noah-isme/hms-api/pkg/errors"
	"github.com/noah-isme/hms-api/pkg/mailer"
)

type mockUserRepo struct {
	users     map[string]*models.User
	createErr error
	auditLogs []*models.AuditLog
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*models.User)}
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) List(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	for id, u := range m.users {
		if id != user.ID && u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) SetPassword(ctx context.Context, id, passwordHash string, verify bool) error {
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.PasswordHash = &passwordHash
	user.PasswordSet = true
	if verify {
		user.EmailVerified = true
		if user.Status == models.StatusPending {
			user.Status = models.StatusActive
		}
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func (m *mockUserRepo) actions() []string {
	out := make([]string, 0, len(m.auditLogs))
	for _, l := range m.auditLogs {
		out = append(out, l.Action)
	}
	return out
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type recordingSender struct {
	sent    []sentMail
	outcome mailer.Outcome
}

func (r *recordingSender) Send(ctx context.Context, to, subject, htmlBody string) mailer.Outcome {
	r.sent = append(r.sent, sentMail{to: to, subject: subject, body: htmlBody})
	if r.outcome.Status != "" {
		return r.outcome
	}
	return mailer.Outcome{Status: mailer.StatusSent}
}

type userServiceFixture struct {
	svc    *UserService
	repo   *mockUserRepo
	mail   *recordingSender
	tokens *TokenService
}

func newUserServiceFixture() *userServiceFixture {
	repo := newMockUserRepo()
	mail := &recordingSender{}
	tokens := newTestTokenService(time.Now())
	svc := NewUserService(repo, tokens, mail, repo, nil, nil, UserServiceConfig{
		FrontendURL: "http://localhost:3000/",
		MaxBulkRows: 10,
		BcryptCost:  bcrypt.MinCost,
	})
	return &userServiceFixture{svc: svc, repo: repo, mail: mail, tokens: tokens}
}

func (f *userServiceFixture) seed(t *testing.T, email, password string, status models.AccountStatus) *models.User {
	t.Helper()
	user := &models.User{
		ID:        uuid.NewString(),
		FirstName: "Asha",
		LastName:  "Perera",
		Email:     email,
		Address:   "12 Hill Street",
		Role:      models.RoleNormal,
		Status:    status,
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		require.NoError(t, err)
		h := string(hash)
		user.PasswordHash = &h
		user.PasswordSet = true
	}
	f.repo.users[user.ID] = user
	return user
}

func validRegisterRequest() dto.RegisterRequest {
	return dto.RegisterRequest{
		FirstName: " Asha ",
		LastName:  "Perera",
		Email:     " Asha@Example.com ",
		Address:   "12 Hill Street",
	}
}

func TestUserServiceRegister(t *testing.T) {
	f := newUserServiceFixture()

	res, err := f.svc.Register(context.Background(), validRegisterRequest(), models.RequestMeta{IP: "10.0.0.1"})
	require.NoError(t, err)

	assert.Equal(t, "asha@example.com", res.User.Email)
	assert.Equal(t, "Asha", res.User.FirstName)
	assert.Equal(t, models.RoleNormal, res.User.Role)
	assert.Equal(t, models.StatusPending, res.User.Status)
	assert.False(t, res.User.PasswordSet)
	assert.True(t, res.Notification.Sent())

	stored := f.repo.users[res.User.ID]
	require.NotNil(t, stored)
	assert.Nil(t, stored.PasswordHash)

	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "asha@example.com", f.mail.sent[0].to)
	assert.Equal(t, mailer.SetPasswordSubject, f.mail.sent[0].subject)
	assert.Contains(t, f.mail.sent[0].body, "http://localhost:3000/set-password?token=")
	assert.Contains(t, f.mail.sent[0].body, "24 hours")
	assert.Contains(t, f.mail.sent[0].body, "Welcome to HMS, Asha Perera!")

	assert.Equal(t, []string{models.AuditActionUserRegister}, f.repo.actions())
	assert.Equal(t, "10.0.0.1", f.repo.auditLogs[0].IPAddress)
	assert.Contains(t, string(f.repo.auditLogs[0].NewValues), `"status":"sent"`)
}

func TestUserServiceRegisterMailFailureStillCreates(t *testing.T) {
	f := newUserServiceFixture()
	f.mail.outcome = mailer.Outcome{Status: mailer.StatusFailed, Reason: mailer.ReasonDeliveryFailed, Detail: "mail transport unavailable: dial tcp 10.1.2.3:587"}

	res, err := f.svc.Register(context.Background(), validRegisterRequest(), models.RequestMeta{})
	require.NoError(t, err)
	assert.False(t, res.Notification.Sent())
	assert.Len(t, f.repo.users, 1)
	assert.Contains(t, string(f.repo.auditLogs[0].NewValues), "mail transport unavailable")

	body, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"reason":"email delivery failed"`)
	assert.NotContains(t, string(body), "10.1.2.3")
}

func TestUserServiceRegisterValidation(t *testing.T) {
	cases := map[string]func(r *dto.RegisterRequest){
		"missing address": func(r *dto.RegisterRequest) { r.Address = "  " },
		"missing email":   func(r *dto.RegisterRequest) { r.Email = "" },
		"bad email":       func(r *dto.RegisterRequest) { r.Email = "not-an-email" },
		"unknown role":    func(r *dto.RegisterRequest) { r.Role = "warden" },
		"student no year": func(r *dto.RegisterRequest) {
			r.Role = models.RoleStudent
			r.PhoneNumber = "0771234567"
			r.Course = "Engineering"
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newUserServiceFixture()
			req := validRegisterRequest()
			mutate(&req)
			_, err := f.svc.Register(context.Background(), req, models.RequestMeta{})
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
			assert.Empty(t, f.repo.users)
			assert.Empty(t, f.mail.sent)
		})
	}
}

func TestUserServiceRegisterStudent(t *testing.T) {
	f := newUserServiceFixture()
	req := validRegisterRequest()
	req.Role = models.RoleStudent
	req.PhoneNumber = "0771234567"
	req.Course = "Engineering"
	req.Year = "2nd Year"

	res, err := f.svc.Register(context.Background(), req, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, res.User.Role)
	assert.Equal(t, "2nd Year", res.User.Year)
}

func TestUserServiceRegisterDuplicate(t *testing.T) {
	f := newUserServiceFixture()
	f.seed(t, "asha@example.com", "", models.StatusPending)

	_, err := f.svc.Register(context.Background(), validRegisterRequest(), models.RequestMeta{})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Empty(t, f.mail.sent)
}

func TestUserServiceRegisterStoreFailure(t *testing.T) {
	f := newUserServiceFixture()
	f.repo.createErr = errors.New("connection refused")

	_, err := f.svc.Register(context.Background(), validRegisterRequest(), models.RequestMeta{})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUpstream)
}

func TestUserServiceBulkImport(t *testing.T) {
	f := newUserServiceFixture()
	f.seed(t, "taken@example.com", "", models.StatusPending)

	data := []byte(strings.Join([]string{
		"firstName,lastName,email,address,role,phoneNumber,course,year",
		"Nimal,Silva,nimal@example.com,Kandy,student,0711111111,Physics,1st Year",
		"Ghost,Row,,Nowhere,,,,",
		"Dup,User,taken@example.com,Galle,,,,",
		"Kamal,Fernando,KAMAL@example.com,,,,,",
	}, "\n"))

	res, err := f.svc.BulkImport(context.Background(), data, models.RequestMeta{ActorID: "admin-1"})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 2, res.NotificationsSent)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "taken@example.com", res.Skipped[0].Email)
	assert.Equal(t, 4, res.Skipped[0].Row)
	assert.Len(t, f.repo.users, 3)

	kamal, err := f.repo.FindByEmail(context.Background(), "kamal@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleNormal, kamal.Role)
	assert.Equal(t, "", kamal.Address)

	assert.Len(t, f.mail.sent, 2)
	assert.Equal(t, []string{models.AuditActionUserBulkImport}, f.repo.actions())
	require.NotNil(t, f.repo.auditLogs[0].UserID)
	assert.Equal(t, "admin-1", *f.repo.auditLogs[0].UserID)
}

func TestUserServiceBulkImportTooManyRows(t *testing.T) {
	f := newUserServiceFixture()
	rows := []string{"firstName,email"}
	for i := 0; i < 11; i++ {
		rows = append(rows, "User,user"+string(rune('a'+i))+"@example.com")
	}

	_, err := f.svc.BulkImport(context.Background(), []byte(strings.Join(rows, "\n")), models.RequestMeta{})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, "Max 10 users allowed", appErrors.FromError(err).Message)
	assert.Empty(t, f.repo.users)
	assert.Empty(t, f.mail.sent)
}

func TestUserServiceBulkImportHeaderOnly(t *testing.T) {
	f := newUserServiceFixture()

	res, err := f.svc.BulkImport(context.Background(), []byte("firstName,lastName,email\n"), models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)
}

func TestUserServiceBulkImportEmpty(t *testing.T) {
	f := newUserServiceFixture()

	_, err := f.svc.BulkImport(context.Background(), []byte(""), models.RequestMeta{})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestUserServiceSetPasswordThenLogin(t *testing.T) {
	f := newUserServiceFixture()
	user := f.seed(t, "asha@example.com", "", models.StatusPending)

	_, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "asha@example.com", Password: "secret123"}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrPasswordNotSet)

	token, _, err := f.tokens.Issue(user.ID, models.PurposeSetup)
	require.NoError(t, err)

	err = f.svc.SetPassword(context.Background(), dto.SetPasswordRequest{Token: token, Password: "secret123"}, models.RequestMeta{})
	require.NoError(t, err)

	stored := f.repo.users[user.ID]
	assert.True(t, stored.PasswordSet)
	assert.True(t, stored.EmailVerified)
	assert.Equal(t, models.StatusActive, stored.Status)
	require.NotNil(t, stored.PasswordHash)
	assert.NotEqual(t, "secret123", *stored.PasswordHash)

	res, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: " ASHA@example.com", Password: "secret123"}, models.RequestMeta{})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, user.ID, res.User.ID)

	claims, err := f.tokens.Verify(res.Token, models.PurposeSession)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID())

	assert.Equal(t, []string{models.AuditActionPasswordSet, models.AuditActionLogin}, f.repo.actions())
}

func TestUserServiceSetPasswordRejectsBadTokens(t *testing.T) {
	f := newUserServiceFixture()
	user := f.seed(t, "asha@example.com", "", models.StatusPending)

	reset, _, err := f.tokens.Issue(user.ID, models.PurposeReset)
	require.NoError(t, err)
	ghost, _, err := f.tokens.Issue(uuid.NewString(), models.PurposeSetup)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"wrong purpose": reset,
		"unknown user":  ghost,
		"garbage":       "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			err := f.svc.SetPassword(context.Background(), dto.SetPasswordRequest{Token: token, Password: "secret123"}, models.RequestMeta{})
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrInvalidToken)
			assert.Equal(t, appErrors.ErrInvalidToken.Message, appErrors.FromError(err).Message)
		})
	}
	assert.False(t, f.repo.users[user.ID].PasswordSet)
}

func TestUserServiceSetPasswordValidation(t *testing.T) {
	f := newUserServiceFixture()

	err := f.svc.SetPassword(context.Background(), dto.SetPasswordRequest{Token: "t"}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestUserServiceLoginFailures(t *testing.T) {
	f := newUserServiceFixture()
	f.seed(t, "asha@example.com", "secret123", models.StatusActive)
	f.seed(t, "off@example.com", "secret123", models.StatusInactive)

	_, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "nobody@example.com", Password: "x"}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, "user not found", appErrors.FromError(err).Message)

	_, err = f.svc.Login(context.Background(), dto.LoginRequest{Email: "asha@example.com", Password: "wrong"}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	assert.Equal(t, "Incorrect password", appErrors.FromError(err).Message)

	_, err = f.svc.Login(context.Background(), dto.LoginRequest{Email: "off@example.com", Password: "secret123"}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.svc.Login(context.Background(), dto.LoginRequest{}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestUserServiceForgotAndResetPassword(t *testing.T) {
	f := newUserServiceFixture()
	user := f.seed(t, "asha@example.com", "old-secret", models.StatusActive)

	_, err := f.svc.ForgotPassword(context.Background(), dto.ForgotPasswordRequest{Email: "nobody@example.com"}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, "email not found", appErrors.FromError(err).Message)

	res, err := f.svc.ForgotPassword(context.Background(), dto.ForgotPasswordRequest{Email: "Asha@example.com"}, models.RequestMeta{})
	require.NoError(t, err)
	assert.True(t, res.Notification.Sent())
	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, mailer.ResetPasswordSubject, f.mail.sent[0].subject)
	assert.Contains(t, f.mail.sent[0].body, "http://localhost:3000/reset-password?token=")
	assert.Contains(t, f.mail.sent[0].body, "1 hour")

	setup, _, err := f.tokens.Issue(user.ID, models.PurposeSetup)
	require.NoError(t, err)
	err = f.svc.ResetPassword(context.Background(), dto.SetPasswordRequest{Token: setup, Password: "new-secret"}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)

	reset, _, err := f.tokens.Issue(user.ID, models.PurposeReset)
	require.NoError(t, err)
	err = f.svc.ResetPassword(context.Background(), dto.SetPasswordRequest{Token: reset, Password: "new-secret"}, models.RequestMeta{})
	require.NoError(t, err)
	assert.False(t, f.repo.users[user.ID].EmailVerified)

	_, err = f.svc.Login(context.Background(), dto.LoginRequest{Email: "asha@example.com", Password: "new-secret"}, models.RequestMeta{})
	require.NoError(t, err)
}

func TestUserServiceVerifyToken(t *testing.T) {
	f := newUserServiceFixture()
	user := f.seed(t, "asha@example.com", "", models.StatusPending)

	token, _, err := f.tokens.Issue(user.ID, models.PurposeReset)
	require.NoError(t, err)

	res, err := f.svc.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, models.PurposeReset, res.Purpose)
	assert.Equal(t, user.ID, res.User.ID)

	_, err = f.svc.VerifyToken(context.Background(), "")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.VerifyToken(context.Background(), "bogus")
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)
}

func TestUserServiceAuthenticate(t *testing.T) {
	f := newUserServiceFixture()
	user := f.seed(t, "asha@example.com", "secret123", models.StatusActive)

	session, _, err := f.tokens.Issue(user.ID, models.PurposeSession)
	require.NoError(t, err)
	got, err := f.svc.Authenticate(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	setup, _, err := f.tokens.Issue(user.ID, models.PurposeSetup)
	require.NoError(t, err)
	_, err = f.svc.Authenticate(context.Background(), setup)
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)
}

func TestUserServiceUpdate(t *testing.T) {
	f := newUserServiceFixture()
	user := f.seed(t, "asha@example.com", "", models.StatusPending)
	f.seed(t, "other@example.com", "", models.StatusPending)

	first := "Ashani"
	role := models.RoleStudent
	phone := "0770000000"
	course := "Medicine"
	year := "Graduate"
	password := "brand-new"
	updated, err := f.svc.Update(context.Background(), user.ID, dto.UpdateUserRequest{
		FirstName:   &first,
		Role:        &role,
		PhoneNumber: &phone,
		Course:      &course,
		Year:        &year,
		Password:    &password,
	}, models.RequestMeta{ActorID: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, "Ashani", updated.FirstName)
	assert.Equal(t, models.RoleStudent, updated.Role)
	assert.Equal(t, "Graduate", updated.Year)
	assert.True(t, updated.PasswordSet)
	require.NotNil(t, updated.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*updated.PasswordHash), []byte("brand-new")))
	assert.Equal(t, []string{models.AuditActionUserUpdate}, f.repo.actions())

	normal := models.RoleNormal
	updated, err = f.svc.Update(context.Background(), user.ID, dto.UpdateUserRequest{Role: &normal}, models.RequestMeta{})
	require.NoError(t, err)
	assert.Empty(t, updated.Course)
}

func TestUserServiceUpdateAuditsOnlyAppliedFields(t *testing.T) {
	f := newUserServiceFixture()
	user := f.seed(t, "asha@example.com", "", models.StatusPending)

	address := "7 Lake Road"
	phone := "0770000000"
	updated, err := f.svc.Update(context.Background(), user.ID, dto.UpdateUserRequest{Address: &address, PhoneNumber: &phone}, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.RoleNormal, updated.Role)
	assert.Empty(t, updated.PhoneNumber)

	require.Len(t, f.repo.auditLogs, 1)
	var values struct {
		Fields []string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(f.repo.auditLogs[0].NewValues, &values))
	assert.Equal(t, []string{"address"}, values.Fields)
}

func TestUserServiceUpdateErrors(t *testing.T) {
	f := newUserServiceFixture()
	user := f.seed(t, "asha@example.com", "", models.StatusPending)
	f.seed(t, "other@example.com", "", models.StatusPending)

	blank := " "
	_, err := f.svc.Update(context.Background(), user.ID, dto.UpdateUserRequest{FirstName: &blank}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	student := models.RoleStudent
	_, err = f.svc.Update(context.Background(), user.ID, dto.UpdateUserRequest{Role: &student}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	status := models.AccountStatus("banned")
	_, err = f.svc.Update(context.Background(), user.ID, dto.UpdateUserRequest{Status: &status}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	bad := "nope"
	_, err = f.svc.Update(context.Background(), user.ID, dto.UpdateUserRequest{Email: &bad}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	taken := "Other@example.com"
	_, err = f.svc.Update(context.Background(), user.ID, dto.UpdateUserRequest{Email: &taken}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = f.svc.Update(context.Background(), uuid.NewString(), dto.UpdateUserRequest{}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = f.svc.Update(context.Background(), "not-a-uuid", dto.UpdateUserRequest{}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUserServiceDeleteIsIdempotent(t *testing.T) {
	f := newUserServiceFixture()
	user := f.seed(t, "asha@example.com", "", models.StatusPending)

	require.NoError(t, f.svc.Delete(context.Background(), user.ID, models.RequestMeta{}))
	assert.Empty(t, f.repo.users)
	require.NoError(t, f.svc.Delete(context.Background(), user.ID, models.RequestMeta{}))
	require.NoError(t, f.svc.Delete(context.Background(), "not-a-uuid", models.RequestMeta{}))

	assert.Equal(t, []string{models.AuditActionUserDelete}, f.repo.actions())
	assert.Nil(t, f.repo.auditLogs[0].UserID)
}

func TestUserServiceGetAndList(t *testing.T) {
	f := newUserServiceFixture()
	user := f.seed(t, "asha@example.com", "", models.StatusPending)

	got, err := f.svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = f.svc.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	users, err := f.svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "24 hours", humanDuration(24*time.Hour))
	assert.Equal(t, "1 hour", humanDuration(time.Hour))
	assert.Equal(t, "30 minutes", humanDuration(30*time.Minute))
	assert.Equal(t, "1m30s", humanDuration(90*time.Second))
}

func TestUserServiceRecordsMetrics(t *testing.T) {
	f := newUserServiceFixture()
	metrics := NewMetricsService()
	f.svc.WithMetrics(metrics)
	f.seed(t, "asha@example.com", "secret123", models.StatusActive)

	_, err := f.svc.Login(context.Background(), dto.LoginRequest{Email: "asha@example.com", Password: "secret123"}, models.RequestMeta{})
	require.NoError(t, err)
	_, err = f.svc.Login(context.Background(), dto.LoginRequest{Email: "asha@example.com", Password: "nope"}, models.RequestMeta{})
	require.Error(t, err)
	_, err = f.svc.Register(context.Background(), dto.RegisterRequest{FirstName: "K", LastName: "F", Email: "k@example.com", Address: "x"}, models.RequestMeta{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.loginTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.loginTotal.WithLabelValues("invalid_credentials")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.mailTotal.WithLabelValues("setup", "sent")))
}
