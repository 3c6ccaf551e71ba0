package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hms-api/internal/models"
)

var feedbackRowColumns = []string{"id", "student_id", "student_name", "message", "images", "status", "date", "completed_date", "created_at", "updated_at"}

func TestCreateFeedback(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	mock.ExpectExec("INSERT INTO feedback").WillReturnResult(sqlmock.NewResult(1, 1))

	fb := &models.Feedback{StudentID: "S1", StudentName: "Ann", Message: "The water heater is broken", Status: models.FeedbackPending, Date: models.Today(time.Now())}
	require.NoError(t, repo.Create(context.Background(), fb))
	assert.NotEmpty(t, fb.ID)
	assert.NotNil(t, fb.Images)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFeedbackOrdersByDate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	today := models.Today(time.Now())
	rows := sqlmock.NewRows(feedbackRowColumns).
		AddRow("f-2", "S2", "Bob", "Light bulb is out again", "{/uploads/a.png,/uploads/b.png}", "pending", today, nil, today, today).
		AddRow("f-1", "S1", "Ann", "Noise after midnight", "{}", "completed", today.AddDate(0, 0, -1), today, today, today)
	mock.ExpectQuery(regexp.QuoteMeta("FROM feedback ORDER BY date DESC, created_at DESC")).WillReturnRows(rows)

	items, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, []string{"/uploads/a.png", "/uploads/b.png"}, []string(items[0].Images))
	assert.Nil(t, items[0].CompletedDate)
	require.NotNil(t, items[1].CompletedDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateFeedbackStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	today := models.Today(time.Now())
	rows := sqlmock.NewRows(feedbackRowColumns).
		AddRow("f-1", "S1", "Ann", "Noise after midnight", "{}", "completed", today, today, today, today)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE feedback SET status = $2, completed_date = $3")).
		WithArgs("f-1", "completed", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	fb, err := repo.UpdateStatus(context.Background(), "f-1", models.FeedbackCompleted, &today)
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackCompleted, fb.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteFeedbackMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM feedback WHERE id = $1")).
		WithArgs("f-x").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Delete(context.Background(), "f-x")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
