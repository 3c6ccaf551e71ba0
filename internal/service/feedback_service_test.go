package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hms-api/internal/dto"
	"github.com/noah-isme/hms-api/internal/models"
	appErrors "github.com/noah-isme/hms-api/pkg/errors"
)

type mockFeedbackRepo struct {
	items     map[string]*models.Feedback
	createErr error
}

func newMockFeedbackRepo() *mockFeedbackRepo {
	return &mockFeedbackRepo{items: make(map[string]*models.Feedback)}
}

func (m *mockFeedbackRepo) Create(ctx context.Context, fb *models.Feedback) error {
	if m.createErr != nil {
		return m.createErr
	}
	copy := *fb
	m.items[fb.ID] = &copy
	return nil
}

func (m *mockFeedbackRepo) List(ctx context.Context) ([]models.Feedback, error) {
	out := make([]models.Feedback, 0, len(m.items))
	for _, fb := range m.items {
		out = append(out, *fb)
	}
	return out, nil
}

func (m *mockFeedbackRepo) UpdateStatus(ctx context.Context, id string, status models.FeedbackStatus, completedDate *time.Time) (*models.Feedback, error) {
	fb, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	fb.Status = status
	fb.CompletedDate = completedDate
	copy := *fb
	return &copy, nil
}

func (m *mockFeedbackRepo) Delete(ctx context.Context, id string) (*models.Feedback, error) {
	fb, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	delete(m.items, id)
	return fb, nil
}

func newFeedbackFixture() (*FeedbackService, *mockFeedbackRepo, *memoryStorage) {
	repo := newMockFeedbackRepo()
	store := newMemoryStorage()
	uploads := NewUploadService(store, nil, UploadServiceConfig{})
	svc := NewFeedbackService(repo, uploads, nil)
	svc.now = func() time.Time { return time.Date(2026, 5, 4, 22, 30, 0, 0, time.UTC) }
	return svc, repo, store
}

func validFeedback() dto.CreateFeedbackRequest {
	return dto.CreateFeedbackRequest{StudentID: "S-100", StudentName: "Nimal", Message: "The water heater is broken"}
}

func TestFeedbackSubmitStoresImages(t *testing.T) {
	svc, repo, store := newFeedbackFixture()

	fb, err := svc.Submit(context.Background(), validFeedback(), []UploadedFile{imageFile("a.png"), imageFile("b.png")})
	require.NoError(t, err)

	assert.Equal(t, models.FeedbackPending, fb.Status)
	assert.Equal(t, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), fb.Date)
	assert.Nil(t, fb.CompletedDate)
	require.Len(t, fb.Images, 2)
	assert.True(t, strings.HasPrefix(fb.Images[0], "/uploads/"))
	assert.Len(t, store.files, 2)
	assert.Contains(t, repo.items, fb.ID)
}

func TestFeedbackSubmitWithoutImages(t *testing.T) {
	svc, _, _ := newFeedbackFixture()

	fb, err := svc.Submit(context.Background(), validFeedback(), nil)
	require.NoError(t, err)
	assert.NotNil(t, fb.Images)
	assert.Empty(t, fb.Images)
}

func TestFeedbackSubmitValidatesBeforeStoring(t *testing.T) {
	svc, _, store := newFeedbackFixture()

	req := validFeedback()
	req.Message = "too short"
	_, err := svc.Submit(context.Background(), req, []UploadedFile{imageFile("a.png")})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, store.files)
	assert.Empty(t, store.deleted)
}

func TestFeedbackSubmitDiscardsImagesOnStoreFailure(t *testing.T) {
	svc, repo, store := newFeedbackFixture()
	repo.createErr = errors.New("connection reset")

	_, err := svc.Submit(context.Background(), validFeedback(), []UploadedFile{imageFile("a.png")})
	assert.ErrorIs(t, err, appErrors.ErrUpstream)
	assert.Empty(t, store.files)
	assert.Len(t, store.deleted, 1)
}

func TestFeedbackAddValidation(t *testing.T) {
	svc, _, _ := newFeedbackFixture()

	cases := map[string]struct {
		mutate func(r *dto.CreateFeedbackRequest)
		images []string
	}{
		"missing student id":   {mutate: func(r *dto.CreateFeedbackRequest) { r.StudentID = " " }},
		"missing student name": {mutate: func(r *dto.CreateFeedbackRequest) { r.StudentName = "" }},
		"missing message":      {mutate: func(r *dto.CreateFeedbackRequest) { r.Message = "" }},
		"message too short":    {mutate: func(r *dto.CreateFeedbackRequest) { r.Message = "123456789" }},
		"message too long":     {mutate: func(r *dto.CreateFeedbackRequest) { r.Message = strings.Repeat("a", 501) }},
		"too many images": {
			mutate: func(r *dto.CreateFeedbackRequest) {},
			images: []string{"1", "2", "3", "4", "5", "6"},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := validFeedback()
			tc.mutate(&req)
			_, err := svc.Add(context.Background(), req, tc.images)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}
}

func TestFeedbackAddMessageBoundaries(t *testing.T) {
	svc, _, _ := newFeedbackFixture()

	for _, msg := range []string{strings.Repeat("a", 10), strings.Repeat("é", 500)} {
		req := validFeedback()
		req.Message = msg
		_, err := svc.Add(context.Background(), req, []string{"/uploads/x.png"})
		require.NoError(t, err)
	}
}

func TestFeedbackAddKeepsMessageAsSubmitted(t *testing.T) {
	svc, repo, _ := newFeedbackFixture()

	for _, msg := range []string{" " + strings.Repeat("a", 9), "  Great semester overall!  "} {
		req := validFeedback()
		req.Message = msg
		fb, err := svc.Add(context.Background(), req, nil)
		require.NoError(t, err)
		assert.Equal(t, msg, fb.Message)
		assert.Equal(t, msg, repo.items[fb.ID].Message)
	}
}

func TestFeedbackUpdateStatus(t *testing.T) {
	svc, _, _ := newFeedbackFixture()
	fb, err := svc.Add(context.Background(), validFeedback(), nil)
	require.NoError(t, err)

	done, err := svc.UpdateStatus(context.Background(), fb.ID, models.FeedbackCompleted)
	require.NoError(t, err)
	require.NotNil(t, done.CompletedDate)
	assert.Equal(t, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), *done.CompletedDate)

	reopened, err := svc.UpdateStatus(context.Background(), fb.ID, models.FeedbackInProgress)
	require.NoError(t, err)
	assert.Nil(t, reopened.CompletedDate)

	_, err = svc.UpdateStatus(context.Background(), fb.ID, models.FeedbackStatus("closed"))
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.UpdateStatus(context.Background(), uuid.NewString(), models.FeedbackCompleted)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, "feedback not found", appErrors.FromError(err).Message)

	_, err = svc.UpdateStatus(context.Background(), "nope", models.FeedbackCompleted)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestFeedbackDeleteRemovesImagesAndIsIdempotent(t *testing.T) {
	svc, repo, store := newFeedbackFixture()
	fb, err := svc.Submit(context.Background(), validFeedback(), []UploadedFile{imageFile("a.png")})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), fb.ID))
	assert.Empty(t, repo.items)
	assert.Empty(t, store.files)

	require.NoError(t, svc.Delete(context.Background(), fb.ID))
	require.NoError(t, svc.Delete(context.Background(), "not-a-uuid"))
	assert.Len(t, store.deleted, 1)
}
