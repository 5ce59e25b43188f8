package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRetry() *RetryPolicy {
	return NewRetryPolicy(3, time.Millisecond)
}

func TestRecognizeSendsMultipartFields(t *testing.T) {
	var gotClassID, gotFilename string
	var gotImage []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotClassID = r.FormValue("classId")

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		gotImage, err = io.ReadAll(file)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"message":"Recognized 1 student(s)","totalFacesDetected":1,
			"recognizedStudents":[{"studentId":"STU001","confidence":0.95,"distance":0.12}]}`))
	}))
	defer server.Close()

	client := NewRecognitionClient(server.URL, 5*time.Second, testRetry())
	resp, err := client.Recognize(context.Background(), "class-1", []byte("jpegbytes"), "frame.jpg")

	require.NoError(t, err)
	assert.Equal(t, "class-1", gotClassID)
	assert.Equal(t, "frame.jpg", gotFilename)
	assert.Equal(t, []byte("jpegbytes"), gotImage)
	assert.Equal(t, 1, resp.TotalFacesDetected)
	require.Len(t, resp.RecognizedStudents, 1)
	assert.Equal(t, "STU001", resp.RecognizedStudents[0].StudentID)
	assert.InDelta(t, 0.95, resp.RecognizedStudents[0].Confidence, 1e-9)
}

func TestRecognizeRetriesOnServerError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"success":true,"message":"ok","totalFacesDetected":0,"recognizedStudents":[]}`))
	}))
	defer server.Close()

	client := NewRecognitionClient(server.URL, 5*time.Second, testRetry())
	resp, err := client.Recognize(context.Background(), "class-1", []byte("img"), "f.jpg")

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 0, resp.TotalFacesDetected)
}

func TestRecognizeFailsAfterExhaustedRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewRecognitionClient(server.URL, 5*time.Second, testRetry())
	_, err := client.Recognize(context.Background(), "class-1", []byte("img"), "f.jpg")

	assert.ErrorIs(t, err, ErrExternalService)
	assert.Equal(t, 3, calls)
}

func TestRecognizeFailsClosedOnMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": not-json`))
	}))
	defer server.Close()

	client := NewRecognitionClient(server.URL, 5*time.Second, testRetry())
	_, err := client.Recognize(context.Background(), "class-1", []byte("img"), "f.jpg")

	assert.ErrorIs(t, err, ErrExternalService)
}

func TestRegisterSendsStudentID(t *testing.T) {
	var gotStudentID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotStudentID = r.FormValue("studentId")
		w.Write([]byte(`{"success":true,"message":"registered","studentId":"STU001","facesDetected":1}`))
	}))
	defer server.Close()

	client := NewRecognitionClient(server.URL, 5*time.Second, testRetry())
	resp, err := client.Register(context.Background(), "STU001", []byte("img"), "stu001.jpg")

	require.NoError(t, err)
	assert.Equal(t, "STU001", gotStudentID)
	assert.Equal(t, 1, resp.FacesDetected)
}
