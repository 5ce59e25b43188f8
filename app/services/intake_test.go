package services

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/models"
)

const (
	testSessionID = "11111111-1111-1111-1111-111111111111"
	testClassID   = "22222222-2222-2222-2222-222222222222"
	testStudentID = "33333333-3333-3333-3333-333333333333"
)

func newIntakeService(t *testing.T, recognitionBody string) (*RecognitionIntakeService, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if recognitionBody == "" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(recognitionBody))
	}))

	client := NewRecognitionClient(server.URL, 5*time.Second, NewRetryPolicy(2, time.Millisecond))
	svc := NewRecognitionIntakeService(db, client)

	cleanup := func() {
		server.Close()
		db.Close()
	}
	return svc, mock, cleanup
}

func sessionColumns() []string {
	return []string{"id", "class_id", "session_date", "session_start_time", "session_end_time", "status", "location", "created_at", "updated_at"}
}

func expectSessionInProgress(mock sqlmock.Sqlmock) {
	now := time.Now()
	mock.ExpectQuery("FROM attendance_sessions WHERE id").
		WithArgs(testSessionID).
		WillReturnRows(sqlmock.NewRows(sessionColumns()).
			AddRow(testSessionID, testClassID, now, now, nil, string(models.SessionInProgress), nil, now, now))
}

func expectPresentSet(mock sqlmock.Sqlmock, studentIDs ...string) {
	rows := sqlmock.NewRows([]string{"student_id"})
	for _, id := range studentIDs {
		rows.AddRow(id)
	}
	mock.ExpectQuery("SELECT student_id FROM attendance_records").
		WithArgs(testSessionID).
		WillReturnRows(rows)
}

func expectStudentByCode(mock sqlmock.Sqlmock, code string) {
	now := time.Now()
	mock.ExpectQuery("FROM students WHERE student_code").
		WithArgs(code).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_code", "first_name", "last_name", "is_active", "created_at", "updated_at"}).
			AddRow(testStudentID, code, "Alice", "Nansubuga", true, now, now))
}

func expectEnrollment(mock sqlmock.Sqlmock, enrolled bool) {
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(testStudentID, testClassID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(enrolled))
}

const oneMatchBody = `{"success":true,"message":"Recognized 1 student(s)","totalFacesDetected":1,
	"recognizedStudents":[{"studentId":"STU001","confidence":0.95,"distance":0.1}]}`

func TestIntakeCreatesNewRecord(t *testing.T) {
	svc, mock, cleanup := newIntakeService(t, oneMatchBody)
	defer cleanup()

	expectSessionInProgress(mock)
	expectPresentSet(mock)
	expectStudentByCode(mock, "STU001")
	expectEnrollment(mock, true)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendance_records").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, err := svc.Process(context.Background(), testSessionID, []byte("img"), "f.jpg")

	require.NoError(t, err)
	assert.True(t, outcome.Success)
	require.Len(t, outcome.RecognizedStudents, 1)
	entry := outcome.RecognizedStudents[0]
	assert.True(t, entry.IsNewRecord)
	assert.Equal(t, testStudentID, entry.StudentID)
	assert.Equal(t, "STU001", entry.StudentCode)
	assert.InDelta(t, 0.95, entry.Confidence, 1e-9)
	assert.Contains(t, outcome.Message, "marked present")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIntakeIsIdempotentForMarkedStudent(t *testing.T) {
	svc, mock, cleanup := newIntakeService(t, oneMatchBody)
	defer cleanup()

	expectSessionInProgress(mock)
	expectPresentSet(mock, testStudentID)
	expectStudentByCode(mock, "STU001")
	// No enrollment check, no insert: the anti-loop set short-circuits.

	outcome, err := svc.Process(context.Background(), testSessionID, []byte("img"), "f.jpg")

	require.NoError(t, err)
	assert.True(t, outcome.Success)
	require.Len(t, outcome.RecognizedStudents, 1)
	assert.False(t, outcome.RecognizedStudents[0].IsNewRecord)
	assert.Contains(t, outcome.Message, "already marked")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIntakeSkipsUnenrolledStudent(t *testing.T) {
	svc, mock, cleanup := newIntakeService(t, oneMatchBody)
	defer cleanup()

	expectSessionInProgress(mock)
	expectPresentSet(mock)
	expectStudentByCode(mock, "STU001")
	expectEnrollment(mock, false)

	outcome, err := svc.Process(context.Background(), testSessionID, []byte("img"), "f.jpg")

	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Empty(t, outcome.RecognizedStudents)
	assert.Equal(t, "No enrolled students recognized", outcome.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIntakeSkipsUnknownStudentCode(t *testing.T) {
	svc, mock, cleanup := newIntakeService(t, oneMatchBody)
	defer cleanup()

	expectSessionInProgress(mock)
	expectPresentSet(mock)
	mock.ExpectQuery("FROM students WHERE student_code").
		WithArgs("STU001").
		WillReturnError(sql.ErrNoRows)

	outcome, err := svc.Process(context.Background(), testSessionID, []byte("img"), "f.jpg")

	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Empty(t, outcome.RecognizedStudents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIntakeNoFaceDetected(t *testing.T) {
	body := `{"success":false,"message":"No face detected","totalFacesDetected":0,"recognizedStudents":[]}`
	svc, mock, cleanup := newIntakeService(t, body)
	defer cleanup()

	expectSessionInProgress(mock)
	expectPresentSet(mock)

	outcome, err := svc.Process(context.Background(), testSessionID, []byte("img"), "f.jpg")

	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, "No face detected in the image", outcome.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIntakeFaceButNoMatch(t *testing.T) {
	body := `{"success":true,"message":"No matches","totalFacesDetected":2,"recognizedStudents":[]}`
	svc, mock, cleanup := newIntakeService(t, body)
	defer cleanup()

	expectSessionInProgress(mock)
	expectPresentSet(mock)

	outcome, err := svc.Process(context.Background(), testSessionID, []byte("img"), "f.jpg")

	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, "Face detected but no matching student found", outcome.Message)
	assert.Equal(t, 2, outcome.TotalFacesDetected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIntakeSoftFailsWhenRecognitionDown(t *testing.T) {
	svc, mock, cleanup := newIntakeService(t, "") // server always returns 500
	defer cleanup()

	expectSessionInProgress(mock)
	expectPresentSet(mock)

	outcome, err := svc.Process(context.Background(), testSessionID, []byte("img"), "f.jpg")

	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, "unavailable")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIntakeSurfacesStorageFailureDistinctly(t *testing.T) {
	svc, mock, cleanup := newIntakeService(t, oneMatchBody)
	defer cleanup()

	expectSessionInProgress(mock)
	expectPresentSet(mock)
	expectStudentByCode(mock, "STU001")
	expectEnrollment(mock, true)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendance_records").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	outcome, err := svc.Process(context.Background(), testSessionID, []byte("img"), "f.jpg")

	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Message, "failed to save")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIntakeAbsorbsLostInsertRace(t *testing.T) {
	svc, mock, cleanup := newIntakeService(t, oneMatchBody)
	defer cleanup()

	expectSessionInProgress(mock)
	expectPresentSet(mock)
	expectStudentByCode(mock, "STU001")
	expectEnrollment(mock, true)

	mock.ExpectBegin()
	// ON CONFLICT DO NOTHING: a concurrent intake call won the insert.
	mock.ExpectExec("INSERT INTO attendance_records").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	outcome, err := svc.Process(context.Background(), testSessionID, []byte("img"), "f.jpg")

	require.NoError(t, err)
	assert.True(t, outcome.Success)
	require.Len(t, outcome.RecognizedStudents, 1)
	assert.False(t, outcome.RecognizedStudents[0].IsNewRecord)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIntakeSessionNotFound(t *testing.T) {
	svc, mock, cleanup := newIntakeService(t, oneMatchBody)
	defer cleanup()

	mock.ExpectQuery("FROM attendance_sessions WHERE id").
		WithArgs(testSessionID).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Process(context.Background(), testSessionID, []byte("img"), "f.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIntakeSessionNotInProgress(t *testing.T) {
	svc, mock, cleanup := newIntakeService(t, oneMatchBody)
	defer cleanup()

	now := time.Now()
	end := now.Add(time.Hour)
	mock.ExpectQuery("FROM attendance_sessions WHERE id").
		WithArgs(testSessionID).
		WillReturnRows(sqlmock.NewRows(sessionColumns()).
			AddRow(testSessionID, testClassID, now, now, end, string(models.SessionCompleted), nil, now, now))

	_, err := svc.Process(context.Background(), testSessionID, []byte("img"), "f.jpg")
	assert.ErrorIs(t, err, ErrInvalidState)
}
