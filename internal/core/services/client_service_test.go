package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"mostaqbal-lab/internal/adapters/persistence/models"
	"mostaqbal-lab/internal/core/domain"

	"github.com/google/uuid"
)

func seedCompletedTest(t *testing.T, tests *fakeLabTestRepo, blobs *fakeBlobRepo, patientID uint, testName string, uploads map[string]time.Time) *models.LabTest {
	t.Helper()
	ctx := context.Background()

	test := &models.LabTest{
		PublicID:      uuid.New().String(),
		PatientID:     patientID,
		PatientName:   "Ahmed Mohamed Ali Abdullah",
		TestName:      testName,
		Status:        domain.StatusCompleted,
		RequestedDate: time.Now(),
	}
	if err := tests.Create(ctx, test); err != nil {
		t.Fatalf("failed to seed test: %v", err)
	}

	var files []*models.ResultFile
	for filename, uploadedAt := range uploads {
		hash, err := blobs.Put(ctx, []byte("content of "+filename))
		if err != nil {
			t.Fatalf("failed to store blob: %v", err)
		}
		files = append(files, &models.ResultFile{
			PublicID:   uuid.New().String(),
			LabTestID:  test.ID,
			Filename:   filename,
			FileType:   domain.FileTypePDF,
			Size:       int64(len(filename)),
			BlobHash:   hash,
			UploadedAt: uploadedAt,
		})
	}
	if err := tests.AppendFiles(ctx, files); err != nil {
		t.Fatalf("failed to append files: %v", err)
	}
	return test
}

// TestMyResults_DayGrouping buckets result files by upload day, newest
// day first and newest file first within each day.
func TestMyResults_DayGrouping(t *testing.T) {
	tests := newFakeLabTestRepo()
	blobs := newFakeBlobRepo()
	svc := NewClientService(tests, blobs)

	day1Morning := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	day1Evening := time.Date(2026, 8, 20, 18, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	seedCompletedTest(t, tests, blobs, 7, "CBC", map[string]time.Time{
		"cbc-morning.pdf": day1Morning,
		"cbc-evening.pdf": day1Evening,
	})
	seedCompletedTest(t, tests, blobs, 7, "Lipid Profile", map[string]time.Time{
		"lipids.pdf": day2,
	})

	groups, err := svc.MyResults(context.Background(), 7)
	if err != nil {
		t.Fatalf("MyResults returned error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("day groups = %d, want 2", len(groups))
	}

	if groups[0].Date != "2026-08-25" || groups[1].Date != "2026-08-20" {
		t.Errorf("group order = [%s, %s], want newest day first", groups[0].Date, groups[1].Date)
	}

	day1 := groups[1]
	if len(day1.Files) != 2 {
		t.Fatalf("files on 2026-08-20 = %d, want 2", len(day1.Files))
	}
	if day1.Files[0].Filename != "cbc-evening.pdf" {
		t.Errorf("first file = %q, want the evening upload first", day1.Files[0].Filename)
	}
	if day1.Files[0].TestName != "CBC" {
		t.Errorf("file test name = %q, want CBC", day1.Files[0].TestName)
	}
}

// TestMyResults_SkipsIncomplete hides tests without results from the
// portal view.
func TestMyResults_SkipsIncomplete(t *testing.T) {
	tests := newFakeLabTestRepo()
	blobs := newFakeBlobRepo()
	svc := NewClientService(tests, blobs)

	// Pending test with no files.
	pending := &models.LabTest{
		PublicID:      uuid.New().String(),
		PatientID:     7,
		TestName:      "FBS",
		Status:        domain.StatusPending,
		RequestedDate: time.Now(),
	}
	if err := tests.Create(context.Background(), pending); err != nil {
		t.Fatalf("failed to seed test: %v", err)
	}

	groups, err := svc.MyResults(context.Background(), 7)
	if err != nil {
		t.Fatalf("MyResults returned error: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("day groups = %d, want 0 for a pending test", len(groups))
	}
}

// TestMyFile_OwnershipCheck refuses to serve another patient's file
func TestMyFile_OwnershipCheck(t *testing.T) {
	tests := newFakeLabTestRepo()
	blobs := newFakeBlobRepo()
	svc := NewClientService(tests, blobs)

	uploadedAt := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	test := seedCompletedTest(t, tests, blobs, 7, "CBC", map[string]time.Time{
		"cbc.pdf": uploadedAt,
	})

	loaded, err := tests.GetByPublicID(context.Background(), test.PublicID)
	if err != nil {
		t.Fatalf("GetByPublicID returned error: %v", err)
	}
	filePublicID := loaded.Files[0].PublicID

	// The owner reads their file.
	file, content, err := svc.MyFile(context.Background(), 7, test.PublicID, filePublicID)
	if err != nil {
		t.Fatalf("MyFile returned error: %v", err)
	}
	if file.Filename != "cbc.pdf" {
		t.Errorf("filename = %q, want cbc.pdf", file.Filename)
	}
	if string(content) != "content of cbc.pdf" {
		t.Errorf("content = %q, want the stored bytes", content)
	}

	// Another patient probing the same IDs is told the file does not
	// exist, not that it is forbidden.
	if _, _, err := svc.MyFile(context.Background(), 8, test.PublicID, filePublicID); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("cross-patient read error = %v, want ErrFileNotFound", err)
	}
}

// TestMyTests lists only the calling patient's tests
func TestMyTests(t *testing.T) {
	tests := newFakeLabTestRepo()
	blobs := newFakeBlobRepo()
	svc := NewClientService(tests, blobs)

	for _, patientID := range []uint{7, 7, 8} {
		test := &models.LabTest{
			PublicID:      uuid.New().String(),
			PatientID:     patientID,
			TestName:      "CBC",
			Status:        domain.StatusPending,
			RequestedDate: time.Now(),
		}
		if err := tests.Create(context.Background(), test); err != nil {
			t.Fatalf("failed to seed test: %v", err)
		}
	}

	mine, err := svc.MyTests(context.Background(), 7)
	if err != nil {
		t.Fatalf("MyTests returned error: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("tests = %d, want 2", len(mine))
	}
}
