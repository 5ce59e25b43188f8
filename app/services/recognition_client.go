package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/models"
)

// RecognitionClient talks to the external face-recognition service:
// recognizing faces in a captured frame against a class's template set, and
// registering a face template for a student.
type RecognitionClient struct {
	baseURL string
	client  *http.Client
	retry   *RetryPolicy
}

func NewRecognitionClient(baseURL string, timeout time.Duration, retry *RetryPolicy) *RecognitionClient {
	return &RecognitionClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		retry:   retry,
	}
}

// Recognize uploads the image with the class ID and returns the parsed
// candidate matches. The error wraps ErrExternalService once retries are
// exhausted; callers on the intake path must treat that as a soft failure.
func (c *RecognitionClient) Recognize(ctx context.Context, classID string, image []byte, filename string) (*models.RecognizeResponse, error) {
	fields := map[string]string{"classId": classID}

	var result models.RecognizeResponse
	err := c.retry.Do(ctx, "face recognize", func(ctx context.Context) error {
		return c.postMultipart(ctx, "/api/face/recognize", fields, image, filename, &result)
	})
	if err != nil {
		return nil, errors.Wrapf(ErrExternalService, "recognize for class %s: %v", classID, err)
	}
	return &result, nil
}

// Register uploads the image with the student ID to store a face template.
func (c *RecognitionClient) Register(ctx context.Context, studentID string, image []byte, filename string) (*models.RegisterResponse, error) {
	fields := map[string]string{"studentId": studentID}

	var result models.RegisterResponse
	err := c.retry.Do(ctx, "face register", func(ctx context.Context) error {
		return c.postMultipart(ctx, "/api/face/register", fields, image, filename, &result)
	})
	if err != nil {
		return nil, errors.Wrapf(ErrExternalService, "register face for student %s: %v", studentID, err)
	}
	return &result, nil
}

// postMultipart performs one attempt: build the multipart body, POST it,
// require a 2xx status and decode the JSON response. A decode failure is an
// error (fail closed), never a silently defaulted struct.
func (c *RecognitionClient) postMultipart(ctx context.Context, path string, fields map[string]string, image []byte, filename string, out interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(image); err != nil {
		return err
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > 0 && len(body) < 500 {
			log.Printf("Recognition service %s returned %d: %s", path, resp.StatusCode, string(body))
		}
		return errors.Newf("recognition service returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse recognition response")
	}
	return nil
}
