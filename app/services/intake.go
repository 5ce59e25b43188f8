package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/database"
	"github.com/LocDangSE/Face-ID-Attendance-sub000/app/models"
)

// RecognitionIntakeService turns captured frames into attendance records.
// Repeated recognition of the same face within a session is idempotent: the
// first call creates the record, later calls report isNewRecord=false and
// never touch storage.
type RecognitionIntakeService struct {
	db          *sql.DB
	recognition *RecognitionClient
}

func NewRecognitionIntakeService(db *sql.DB, recognition *RecognitionClient) *RecognitionIntakeService {
	return &RecognitionIntakeService{db: db, recognition: recognition}
}

// Process runs one captured image through recognition for the session.
//
// Precondition violations (missing session, session not in progress) return
// an error. Expected non-fatal outcomes (recognition call failed, no face,
// no match, storage failure on save) come back as a RecognitionOutcome
// with success=false and a message distinguishing the cause.
func (s *RecognitionIntakeService) Process(ctx context.Context, sessionID string, image []byte, filename string) (*models.RecognitionOutcome, error) {
	session, err := database.GetSessionByID(s.db, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(ErrNotFound, "session %s", sessionID)
		}
		return nil, errors.Wrapf(ErrStorage, "load session %s: %v", sessionID, err)
	}
	if session.Status != models.SessionInProgress {
		return nil, errors.Wrapf(ErrInvalidState, "session %s is %s, not in progress", sessionID, session.Status)
	}

	// Anti-loop set: students already marked present in this session.
	alreadyPresent, err := database.GetPresentStudentIDs(s.db, sessionID)
	if err != nil {
		return nil, errors.Wrapf(ErrStorage, "load present set for session %s: %v", sessionID, err)
	}

	resp, err := s.recognition.Recognize(ctx, session.ClassID, image, filename)
	if err != nil {
		// Soft failure: one bad recognition call never fails the session.
		log.Printf("Recognition call failed for session %s: %v", sessionID, err)
		return &models.RecognitionOutcome{
			Success:            false,
			Message:            "Recognition service unavailable, please try again",
			RecognizedStudents: []*models.RecognizedEntry{},
		}, nil
	}

	if resp.TotalFacesDetected == 0 {
		return &models.RecognitionOutcome{
			Success:            false,
			Message:            "No face detected in the image",
			TotalFacesDetected: 0,
			RecognizedStudents: []*models.RecognizedEntry{},
		}, nil
	}
	if len(resp.RecognizedStudents) == 0 {
		return &models.RecognitionOutcome{
			Success:            false,
			Message:            "Face detected but no matching student found",
			TotalFacesDetected: resp.TotalFacesDetected,
			RecognizedStudents: []*models.RecognizedEntry{},
		}, nil
	}

	var recognized []*models.RecognizedEntry
	var newRecords []*models.AttendanceRecord
	now := time.Now()

	for _, candidate := range resp.RecognizedStudents {
		code := candidate.StudentID
		if code == "" {
			log.Printf("Skipping candidate with empty student identifier (session %s)", sessionID)
			continue
		}

		student, err := database.GetStudentByCode(s.db, code)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				log.Printf("Recognized unknown student code %q, skipping", code)
				continue
			}
			return nil, errors.Wrapf(ErrStorage, "load student %q: %v", code, err)
		}

		// Already marked present: report it, touch nothing.
		if alreadyPresent[student.ID] {
			recognized = append(recognized, &models.RecognizedEntry{
				StudentID:   student.ID,
				StudentCode: student.StudentCode,
				FullName:    student.FullName(),
				Confidence:  candidate.Confidence,
				IsNewRecord: false,
			})
			continue
		}

		// Recognized but not enrolled in this class: never recorded.
		enrolled, err := database.HasActiveEnrollment(s.db, student.ID, session.ClassID)
		if err != nil {
			return nil, errors.Wrapf(ErrStorage, "check enrollment for student %s: %v", student.ID, err)
		}
		if !enrolled {
			log.Printf("Student %s recognized but not enrolled in class %s, skipping", student.StudentCode, session.ClassID)
			continue
		}

		confidence := candidate.Confidence
		newRecords = append(newRecords, &models.AttendanceRecord{
			ID:          uuid.NewString(),
			SessionID:   sessionID,
			StudentID:   student.ID,
			Status:      models.Present,
			CheckInTime: now,
			Confidence:  &confidence,
		})
		recognized = append(recognized, &models.RecognizedEntry{
			StudentID:   student.ID,
			StudentCode: student.StudentCode,
			FullName:    student.FullName(),
			Confidence:  candidate.Confidence,
			IsNewRecord: true,
		})
	}

	if len(newRecords) > 0 {
		if err := s.saveRecords(newRecords, recognized); err != nil {
			// The caller is told recognition succeeded but storage failed;
			// recognized matches are never silently dropped.
			log.Printf("Failed to save attendance records for session %s: %v", sessionID, err)
			return &models.RecognitionOutcome{
				Success:            false,
				Message:            fmt.Sprintf("Recognized %d student(s) but failed to save attendance records", len(newRecords)),
				TotalFacesDetected: resp.TotalFacesDetected,
				RecognizedStudents: []*models.RecognizedEntry{},
			}, nil
		}
	}

	if recognized == nil {
		recognized = []*models.RecognizedEntry{}
	}
	return &models.RecognitionOutcome{
		Success:            len(recognized) > 0,
		Message:            intakeMessage(recognized),
		TotalFacesDetected: resp.TotalFacesDetected,
		RecognizedStudents: recognized,
	}, nil
}

// saveRecords persists the new records in one transaction. A concurrent
// intake call may have inserted a student between the pre-check and here;
// the unique (session, student) index absorbs that, and the corresponding
// entry is downgraded to isNewRecord=false.
func (s *RecognitionIntakeService) saveRecords(records []*models.AttendanceRecord, recognized []*models.RecognizedEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	for _, record := range records {
		inserted, err := database.InsertAttendanceRecordTx(tx, record)
		if err != nil {
			tx.Rollback()
			return err
		}
		if !inserted {
			for _, entry := range recognized {
				if entry.StudentID == record.StudentID {
					entry.IsNewRecord = false
				}
			}
		}
	}

	return tx.Commit()
}

func intakeMessage(recognized []*models.RecognizedEntry) string {
	if len(recognized) == 0 {
		return "No enrolled students recognized"
	}
	newCount := 0
	for _, entry := range recognized {
		if entry.IsNewRecord {
			newCount++
		}
	}
	if newCount == 0 {
		return fmt.Sprintf("%d student(s) recognized, already marked present", len(recognized))
	}
	if newCount == len(recognized) {
		return fmt.Sprintf("%d student(s) recognized and marked present", newCount)
	}
	return fmt.Sprintf("%d student(s) recognized, %d newly marked present", len(recognized), newCount)
}
