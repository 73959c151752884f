package services

import (
	"context"
	"sort"

	"mostaqbal-lab/internal/adapters/persistence/models"
	"mostaqbal-lab/internal/adapters/persistence/repositories"
)

// ClientService serves the patient-facing portal: a patient sees their
// own tests and result files only.
type ClientService struct {
	testRepo repositories.LabTestRepository
	blobRepo repositories.BlobRepository
}

// NewClientService creates a new client service
func NewClientService(
	testRepo repositories.LabTestRepository,
	blobRepo repositories.BlobRepository,
) *ClientService {
	return &ClientService{
		testRepo: testRepo,
		blobRepo: blobRepo,
	}
}

// DayFile is one result file shown inside a day group
type DayFile struct {
	TestPublicID string `json:"test_public_id"`
	TestName     string `json:"test_name"`
	*models.ResultFileResponse
}

// DayGroup buckets a day's result files
type DayGroup struct {
	Date  string     `json:"date"` // YYYY-MM-DD
	Files []*DayFile `json:"files"`
}

// MyTests lists the patient's tests, newest first
func (s *ClientService) MyTests(ctx context.Context, patientID uint) ([]*models.LabTestResponse, error) {
	tests, err := s.testRepo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.LabTestResponse, len(tests))
	for i, t := range tests {
		responses[i] = t.ToResponse()
	}
	return responses, nil
}

// MyResults groups the patient's result files by upload day, newest
// day first and newest file first within each day.
func (s *ClientService) MyResults(ctx context.Context, patientID uint) ([]*DayGroup, error) {
	tests, err := s.testRepo.ListCompletedWithFiles(ctx, patientID)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string][]*DayFile)
	for _, test := range tests {
		for i := range test.Files {
			f := &test.Files[i]
			day := f.UploadedAt.Format("2006-01-02")
			buckets[day] = append(buckets[day], &DayFile{
				TestPublicID:       test.PublicID,
				TestName:           test.TestName,
				ResultFileResponse: f.ToResponse(),
			})
		}
	}

	groups := make([]*DayGroup, 0, len(buckets))
	for day, files := range buckets {
		sort.Slice(files, func(i, j int) bool {
			return files[i].UploadedAt.After(files[j].UploadedAt)
		})
		groups = append(groups, &DayGroup{Date: day, Files: files})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Date > groups[j].Date
	})

	return groups, nil
}

// MyFile returns one of the patient's result files with content. The
// ownership check happens here, not in the handler.
func (s *ClientService) MyFile(ctx context.Context, patientID uint, testPublicID, filePublicID string) (*models.ResultFile, []byte, error) {
	test, err := s.testRepo.GetByPublicID(ctx, testPublicID)
	if err != nil {
		return nil, nil, ErrTestNotFound
	}
	if test.PatientID != patientID {
		return nil, nil, ErrFileNotFound
	}

	file, err := s.testRepo.GetFileByPublicID(ctx, test.ID, filePublicID)
	if err != nil {
		return nil, nil, ErrFileNotFound
	}

	blob, err := s.blobRepo.Get(ctx, file.BlobHash)
	if err != nil {
		return nil, nil, err
	}

	return file, blob.Content, nil
}
