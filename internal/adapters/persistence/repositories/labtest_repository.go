package repositories

import (
	"context"
	"time"

	"mostaqbal-lab/internal/adapters/persistence/models"
	"mostaqbal-lab/internal/core/domain"

	"gorm.io/gorm"
)

// labTestRepository implements LabTestRepository interface
type labTestRepository struct {
	db *gorm.DB
}

// NewLabTestRepository creates a new lab test repository
func NewLabTestRepository(db *gorm.DB) LabTestRepository {
	return &labTestRepository{db: db}
}

// Create creates a new test/request record
func (r *labTestRepository) Create(ctx context.Context, test *models.LabTest) error {
	return r.db.WithContext(ctx).Create(test).Error
}

// GetByID gets a test by internal ID, with its result files
func (r *labTestRepository) GetByID(ctx context.Context, id uint) (*models.LabTest, error) {
	var test models.LabTest
	err := r.db.WithContext(ctx).Preload("Files").Where("id = ?", id).First(&test).Error
	if err != nil {
		return nil, err
	}
	return &test, nil
}

// GetByPublicID gets a test by public ID, with its result files
func (r *labTestRepository) GetByPublicID(ctx context.Context, publicID string) (*models.LabTest, error) {
	var test models.LabTest
	err := r.db.WithContext(ctx).Preload("Files").Where("public_id = ?", publicID).First(&test).Error
	if err != nil {
		return nil, err
	}
	return &test, nil
}

// UpdateVersioned saves the record guarded by its version column
func (r *labTestRepository) UpdateVersioned(ctx context.Context, test *models.LabTest) error {
	return updateVersioned(r.db.WithContext(ctx), test)
}

// updateVersioned runs the guarded write on the given handle so it can
// execute either standalone or inside a surrounding transaction
func updateVersioned(db *gorm.DB, test *models.LabTest) error {
	currentVersion := test.Version
	test.Version = currentVersion + 1

	res := db.Model(&models.LabTest{}).
		Where("id = ? AND version = ?", test.ID, currentVersion).
		Updates(map[string]interface{}{
			"patient_name":       test.PatientName,
			"patient_phone":      test.PatientPhone,
			"test_name":          test.TestName,
			"status":             test.Status,
			"result_value":       test.ResultValue,
			"unit":               test.Unit,
			"reference_range":    test.ReferenceRange,
			"result_uploaded_at": test.ResultUploadedAt,
			"notes":              test.Notes,
			"version":            test.Version,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		test.Version = currentVersion
		return domain.ErrVersionConflict
	}
	return nil
}

// List lists tests, optionally filtered by status and a search term
// matched against the test name or public ID
func (r *labTestRepository) List(ctx context.Context, status domain.TestStatus, search string, offset, limit int) ([]*models.LabTest, int64, error) {
	var tests []*models.LabTest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.LabTest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("test_name LIKE ? OR public_id LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload("Files").Order("created_at DESC").Offset(offset).Limit(limit).Find(&tests).Error; err != nil {
		return nil, 0, err
	}

	return tests, total, nil
}

// ListByPatient lists all tests of a patient, newest first
func (r *labTestRepository) ListByPatient(ctx context.Context, patientID uint) ([]*models.LabTest, error) {
	var tests []*models.LabTest
	err := r.db.WithContext(ctx).Preload("Files").
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&tests).Error
	return tests, err
}

// ListCompletedWithFiles lists a patient's completed tests that carry at
// least one result file (the client results view)
func (r *labTestRepository) ListCompletedWithFiles(ctx context.Context, patientID uint) ([]*models.LabTest, error) {
	var tests []*models.LabTest
	err := r.db.WithContext(ctx).Preload("Files").
		Where("patient_id = ? AND status = ?", patientID, domain.StatusCompleted).
		Where("EXISTS (SELECT 1 FROM result_files WHERE result_files.lab_test_id = lab_tests.id)").
		Order("created_at DESC").
		Find(&tests).Error
	return tests, err
}

// FindGeneralRecord finds the patient's catch-all record used for
// general medical file uploads
func (r *labTestRepository) FindGeneralRecord(ctx context.Context, patientID uint, testName string) (*models.LabTest, error) {
	var test models.LabTest
	err := r.db.WithContext(ctx).Preload("Files").
		Where("patient_id = ? AND test_name = ?", patientID, testName).
		First(&test).Error
	if err != nil {
		return nil, err
	}
	return &test, nil
}

// CountByStatus counts tests in a given status
func (r *labTestRepository) CountByStatus(ctx context.Context, status domain.TestStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LabTest{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// CountNotStatus counts tests not in a given status
func (r *labTestRepository) CountNotStatus(ctx context.Context, status domain.TestStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LabTest{}).Where("status <> ?", status).Count(&count).Error
	return count, err
}

// CountRequestedOn counts tests requested on a calendar day
func (r *labTestRepository) CountRequestedOn(ctx context.Context, day time.Time) (int64, error) {
	var count int64
	start := day.Truncate(24 * time.Hour)
	err := r.db.WithContext(ctx).Model(&models.LabTest{}).
		Where("requested_date >= ? AND requested_date < ?", start, start.Add(24*time.Hour)).
		Count(&count).Error
	return count, err
}

// ListRecent lists the most recently created tests
func (r *labTestRepository) ListRecent(ctx context.Context, limit int) ([]*models.LabTest, error) {
	var tests []*models.LabTest
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&tests).Error
	return tests, err
}

// AppendFiles inserts result file references in one batch
func (r *labTestRepository) AppendFiles(ctx context.Context, files []*models.ResultFile) error {
	if len(files) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(files).Error
}

// AppendFilesVersioned inserts the file references and saves the test
// under its version guard in one transaction. A version conflict rolls
// the inserted files back too, so a retried upload never duplicates
// them.
func (r *labTestRepository) AppendFilesVersioned(ctx context.Context, test *models.LabTest, files []*models.ResultFile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(files) > 0 {
			if err := tx.Create(files).Error; err != nil {
				return err
			}
		}
		return updateVersioned(tx, test)
	})
}

// GetFileByPublicID gets a result file belonging to a test
func (r *labTestRepository) GetFileByPublicID(ctx context.Context, testID uint, filePublicID string) (*models.ResultFile, error) {
	var file models.ResultFile
	err := r.db.WithContext(ctx).
		Where("lab_test_id = ? AND public_id = ?", testID, filePublicID).
		First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}
