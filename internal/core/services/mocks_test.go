package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"mostaqbal-lab/internal/adapters/persistence/models"
	"mostaqbal-lab/internal/adapters/persistence/repositories"
	"mostaqbal-lab/internal/config"
	"mostaqbal-lab/internal/core/domain"

	"gorm.io/gorm"
)

// In-memory repository fakes shared by the service tests.

func testConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "test-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
		Lab: config.LabConfig{
			AdminUsername:    "admin",
			AdminPassword:    "admin-password",
			EmailDomain:      "lab-mostaqbal.web.app",
			CountryCode:      "20",
			MaxFileSizeBytes: 15 * 1024 * 1024,
			StaleOutreachHrs: 24,
		},
	}
}

// ---- users ----

type fakeUserRepo struct {
	users  map[uint]*models.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByPatientID(_ context.Context, patientID uint) (*models.User, error) {
	for _, u := range r.users {
		if u.PatientID != nil && *u.PatientID == patientID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uint) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, offset, limit int) ([]*models.User, int64, error) {
	all := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (r *fakeUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) CountByRole(_ context.Context, role domain.Role) (int64, error) {
	var n int64
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// ---- refresh tokens ----

type fakeRefreshTokenRepo struct {
	tokens map[uint]*models.RefreshToken
	nextID uint
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: make(map[uint]*models.RefreshToken)}
}

func (r *fakeRefreshTokenRepo) Create(_ context.Context, token *models.RefreshToken) error {
	r.nextID++
	token.ID = r.nextID
	r.tokens[token.ID] = token
	return nil
}

func (r *fakeRefreshTokenRepo) GetByTokenHash(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	for _, t := range r.tokens {
		if t.TokenHash == tokenHash {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRefreshTokenRepo) Revoke(_ context.Context, id uint) error {
	if t, ok := r.tokens[id]; ok {
		now := time.Now()
		t.RevokedAt = &now
	}
	return nil
}

func (r *fakeRefreshTokenRepo) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	t, err := r.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil
	}
	return r.Revoke(ctx, t.ID)
}

func (r *fakeRefreshTokenRepo) RevokeAllByUserID(_ context.Context, userID uint) error {
	now := time.Now()
	for _, t := range r.tokens {
		if t.UserID == userID {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeRefreshTokenRepo) DeleteExpired(_ context.Context) (int64, error) {
	var n int64
	for id, t := range r.tokens {
		if time.Now().After(t.ExpiresAt) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

// ---- patients ----

type fakePatientRepo struct {
	patients map[uint]*models.Patient
	users    *fakeUserRepo
	nextID   uint
}

func newFakePatientRepo(users *fakeUserRepo) *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[uint]*models.Patient), users: users}
}

func (r *fakePatientRepo) Create(_ context.Context, patient *models.Patient) error {
	r.nextID++
	patient.ID = r.nextID
	patient.CreatedAt = time.Now()
	r.patients[patient.ID] = patient
	return nil
}

func (r *fakePatientRepo) CreateWithCredential(ctx context.Context, patient *models.Patient, user *models.User) error {
	if err := r.Create(ctx, patient); err != nil {
		return err
	}
	user.PatientID = &patient.ID
	return r.users.Create(ctx, user)
}

func (r *fakePatientRepo) DeleteWithCredential(ctx context.Context, patientID uint) error {
	delete(r.patients, patientID)
	if u, err := r.users.GetByPatientID(ctx, patientID); err == nil {
		return r.users.Delete(ctx, u.ID)
	}
	return nil
}

func (r *fakePatientRepo) GetByID(_ context.Context, id uint) (*models.Patient, error) {
	if p, ok := r.patients[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePatientRepo) GetByPublicID(_ context.Context, publicID string) (*models.Patient, error) {
	for _, p := range r.patients {
		if p.PublicID == publicID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePatientRepo) Update(_ context.Context, patient *models.Patient) error {
	r.patients[patient.ID] = patient
	return nil
}

func (r *fakePatientRepo) Delete(_ context.Context, id uint) error {
	delete(r.patients, id)
	return nil
}

func (r *fakePatientRepo) List(_ context.Context, offset, limit int) ([]*models.Patient, int64, error) {
	all := r.all()
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (r *fakePatientRepo) Search(_ context.Context, term string, offset, limit int) ([]*models.Patient, int64, error) {
	var hits []*models.Patient
	for _, p := range r.all() {
		if strings.Contains(p.Name, term) || strings.Contains(p.Phone, term) {
			hits = append(hits, p)
		}
	}
	return paginate(hits, offset, limit), int64(len(hits)), nil
}

func (r *fakePatientRepo) CountAll(_ context.Context) (int64, error) {
	return int64(len(r.patients)), nil
}

func (r *fakePatientRepo) CountCreatedSince(_ context.Context, since time.Time) (int64, error) {
	var n int64
	for _, p := range r.patients {
		if p.CreatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (r *fakePatientRepo) ListCreatedSince(_ context.Context, since time.Time) ([]*models.Patient, error) {
	var hits []*models.Patient
	for _, p := range r.all() {
		if p.CreatedAt.After(since) {
			hits = append(hits, p)
		}
	}
	return hits, nil
}

func (r *fakePatientRepo) all() []*models.Patient {
	all := make([]*models.Patient, 0, len(r.patients))
	for _, p := range r.patients {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// ---- lab tests ----

type fakeLabTestRepo struct {
	tests  map[uint]*models.LabTest
	files  []*models.ResultFile
	nextID uint
}

func newFakeLabTestRepo() *fakeLabTestRepo {
	return &fakeLabTestRepo{tests: make(map[uint]*models.LabTest)}
}

func (r *fakeLabTestRepo) Create(_ context.Context, test *models.LabTest) error {
	r.nextID++
	test.ID = r.nextID
	test.CreatedAt = time.Now()
	if test.Version == 0 {
		test.Version = 1
	}
	stored := *test
	r.tests[test.ID] = &stored
	return nil
}

func (r *fakeLabTestRepo) GetByID(_ context.Context, id uint) (*models.LabTest, error) {
	if t, ok := r.tests[id]; ok {
		cp := *t
		cp.Files = r.filesFor(t.ID)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeLabTestRepo) GetByPublicID(_ context.Context, publicID string) (*models.LabTest, error) {
	for _, t := range r.tests {
		if t.PublicID == publicID {
			cp := *t
			cp.Files = r.filesFor(t.ID)
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeLabTestRepo) UpdateVersioned(_ context.Context, test *models.LabTest) error {
	stored, ok := r.tests[test.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != test.Version {
		return domain.ErrVersionConflict
	}
	cp := *test
	cp.Version = stored.Version + 1
	cp.Files = nil
	r.tests[test.ID] = &cp
	test.Version = cp.Version
	return nil
}

func (r *fakeLabTestRepo) List(_ context.Context, status domain.TestStatus, search string, offset, limit int) ([]*models.LabTest, int64, error) {
	var hits []*models.LabTest
	for _, t := range r.allSorted() {
		if status != "" && t.Status != status {
			continue
		}
		if search != "" && !strings.Contains(t.TestName, search) && !strings.Contains(t.PublicID, search) {
			continue
		}
		hits = append(hits, t)
	}
	return paginate(hits, offset, limit), int64(len(hits)), nil
}

func (r *fakeLabTestRepo) ListByPatient(_ context.Context, patientID uint) ([]*models.LabTest, error) {
	var hits []*models.LabTest
	for _, t := range r.allSorted() {
		if t.PatientID == patientID {
			cp := *t
			cp.Files = r.filesFor(t.ID)
			hits = append(hits, &cp)
		}
	}
	return hits, nil
}

func (r *fakeLabTestRepo) ListCompletedWithFiles(ctx context.Context, patientID uint) ([]*models.LabTest, error) {
	all, err := r.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	var hits []*models.LabTest
	for _, t := range all {
		if t.Status == domain.StatusCompleted && len(t.Files) > 0 {
			hits = append(hits, t)
		}
	}
	return hits, nil
}

func (r *fakeLabTestRepo) FindGeneralRecord(_ context.Context, patientID uint, testName string) (*models.LabTest, error) {
	for _, t := range r.tests {
		if t.PatientID == patientID && t.TestName == testName {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeLabTestRepo) CountByStatus(_ context.Context, status domain.TestStatus) (int64, error) {
	var n int64
	for _, t := range r.tests {
		if t.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *fakeLabTestRepo) CountNotStatus(_ context.Context, status domain.TestStatus) (int64, error) {
	var n int64
	for _, t := range r.tests {
		if t.Status != status {
			n++
		}
	}
	return n, nil
}

func (r *fakeLabTestRepo) CountRequestedOn(_ context.Context, day time.Time) (int64, error) {
	var n int64
	for _, t := range r.tests {
		if t.RequestedDate.Format("2006-01-02") == day.Format("2006-01-02") {
			n++
		}
	}
	return n, nil
}

func (r *fakeLabTestRepo) ListRecent(_ context.Context, limit int) ([]*models.LabTest, error) {
	all := r.allSorted()
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeLabTestRepo) AppendFiles(_ context.Context, files []*models.ResultFile) error {
	for i, f := range files {
		cp := *f
		cp.ID = uint(len(r.files) + i + 1)
		r.files = append(r.files, &cp)
	}
	return nil
}

func (r *fakeLabTestRepo) AppendFilesVersioned(ctx context.Context, test *models.LabTest, files []*models.ResultFile) error {
	// The version check runs first so a conflict leaves no file rows
	// behind, mirroring the transactional rollback.
	if err := r.UpdateVersioned(ctx, test); err != nil {
		return err
	}
	return r.AppendFiles(ctx, files)
}

func (r *fakeLabTestRepo) GetFileByPublicID(_ context.Context, testID uint, filePublicID string) (*models.ResultFile, error) {
	for _, f := range r.files {
		if f.LabTestID == testID && f.PublicID == filePublicID {
			return f, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeLabTestRepo) filesFor(testID uint) []models.ResultFile {
	var out []models.ResultFile
	for _, f := range r.files {
		if f.LabTestID == testID {
			out = append(out, *f)
		}
	}
	return out
}

func (r *fakeLabTestRepo) allSorted() []*models.LabTest {
	all := make([]*models.LabTest, 0, len(r.tests))
	for _, t := range r.tests {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return all
}

// ---- blobs ----

type fakeBlobRepo struct {
	blobs map[string][]byte
}

func newFakeBlobRepo() *fakeBlobRepo {
	return &fakeBlobRepo{blobs: make(map[string][]byte)}
}

func (r *fakeBlobRepo) Put(_ context.Context, content []byte) (string, error) {
	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])
	r.blobs[hash] = content
	return hash, nil
}

func (r *fakeBlobRepo) Get(_ context.Context, hash string) (*models.ResultBlob, error) {
	if content, ok := r.blobs[hash]; ok {
		return &models.ResultBlob{Hash: hash, Content: content, Size: int64(len(content))}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ---- staff notifications ----

type fakeStaffNotifRepo struct {
	notifs map[uint]*models.StaffNotification
	nextID uint
}

func newFakeStaffNotifRepo() *fakeStaffNotifRepo {
	return &fakeStaffNotifRepo{notifs: make(map[uint]*models.StaffNotification)}
}

func (r *fakeStaffNotifRepo) Create(_ context.Context, notif *models.StaffNotification) error {
	r.nextID++
	notif.ID = r.nextID
	notif.CreatedAt = time.Now()
	r.notifs[notif.ID] = notif
	return nil
}

func (r *fakeStaffNotifRepo) GetByPublicID(_ context.Context, publicID string) (*models.StaffNotification, error) {
	for _, n := range r.notifs {
		if n.PublicID == publicID {
			return n, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeStaffNotifRepo) Update(_ context.Context, notif *models.StaffNotification) error {
	r.notifs[notif.ID] = notif
	return nil
}

func (r *fakeStaffNotifRepo) List(_ context.Context, status domain.OutreachStatus, offset, limit int) ([]*models.StaffNotification, int64, error) {
	var hits []*models.StaffNotification
	for _, n := range r.notifs {
		if status == "" || n.Status == status {
			hits = append(hits, n)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID > hits[j].ID })
	return paginate(hits, offset, limit), int64(len(hits)), nil
}

func (r *fakeStaffNotifRepo) CountByStatus(_ context.Context, status domain.OutreachStatus) (int64, error) {
	var n int64
	for _, notif := range r.notifs {
		if notif.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *fakeStaffNotifRepo) ListStaleNew(_ context.Context, olderThan time.Time) ([]*models.StaffNotification, error) {
	var hits []*models.StaffNotification
	for _, n := range r.notifs {
		if n.Status == domain.OutreachNew && n.CreatedAt.Before(olderThan) {
			hits = append(hits, n)
		}
	}
	return hits, nil
}

// ---- client notifications ----

type fakeClientNotifRepo struct {
	notifs map[[2]uint]*models.ClientNotification
	nextID uint
}

func newFakeClientNotifRepo() *fakeClientNotifRepo {
	return &fakeClientNotifRepo{notifs: make(map[[2]uint]*models.ClientNotification)}
}

func (r *fakeClientNotifRepo) CreateIfAbsent(_ context.Context, notif *models.ClientNotification) error {
	key := [2]uint{notif.PatientID, notif.LabTestID}
	if _, ok := r.notifs[key]; ok {
		return nil
	}
	r.nextID++
	notif.ID = r.nextID
	notif.CreatedAt = time.Now()
	r.notifs[key] = notif
	return nil
}

func (r *fakeClientNotifRepo) ListUnseen(_ context.Context, patientID uint) ([]*models.ClientNotification, error) {
	var hits []*models.ClientNotification
	for _, n := range r.notifs {
		if n.PatientID == patientID && n.SeenAt == nil {
			hits = append(hits, n)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID > hits[j].ID })
	return hits, nil
}

func (r *fakeClientNotifRepo) MarkSeen(_ context.Context, patientID, id uint) error {
	for _, n := range r.notifs {
		if n.ID == id && n.PatientID == patientID {
			now := time.Now()
			n.SeenAt = &now
		}
	}
	return nil
}

// ---- ledger ----

type fakeLedgerRepo struct {
	entries map[uint]*models.LedgerEntry
	needs   []*models.LabNeed
	nextID  uint
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{entries: make(map[uint]*models.LedgerEntry)}
}

func (r *fakeLedgerRepo) CreateEntry(_ context.Context, entry *models.LedgerEntry) error {
	r.nextID++
	entry.ID = r.nextID
	entry.CreatedAt = time.Now()
	r.entries[entry.ID] = entry
	return nil
}

func (r *fakeLedgerRepo) GetEntryByPublicID(_ context.Context, publicID string) (*models.LedgerEntry, error) {
	for _, e := range r.entries {
		if e.PublicID == publicID {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeLedgerRepo) ListEntries(_ context.Context, entryType domain.EntryType, offset, limit int) ([]*models.LedgerEntry, int64, error) {
	var hits []*models.LedgerEntry
	for _, e := range r.entries {
		if entryType == "" || e.EntryType == entryType {
			hits = append(hits, e)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID > hits[j].ID })
	return paginate(hits, offset, limit), int64(len(hits)), nil
}

func (r *fakeLedgerRepo) DeleteEntry(_ context.Context, id uint) error {
	delete(r.entries, id)
	return nil
}

func (r *fakeLedgerRepo) Summary(_ context.Context) (*repositories.LedgerSummary, error) {
	var s repositories.LedgerSummary
	for _, e := range r.entries {
		switch e.EntryType {
		case domain.EntryIncome:
			s.Income += e.Amount
		case domain.EntryExpense:
			s.Expenses += e.Amount
		}
	}
	s.Balance = s.Income - s.Expenses
	return &s, nil
}

func (r *fakeLedgerRepo) CreateNeed(_ context.Context, need *models.LabNeed) error {
	need.ID = uint(len(r.needs) + 1)
	need.CreatedAt = time.Now()
	r.needs = append(r.needs, need)
	return nil
}

func (r *fakeLedgerRepo) ListNeeds(_ context.Context, offset, limit int) ([]*models.LabNeed, int64, error) {
	return paginate(r.needs, offset, limit), int64(len(r.needs)), nil
}

// ---- templates ----

type fakeTemplateRepo struct {
	templates map[string]*models.TestTemplate
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{templates: make(map[string]*models.TestTemplate)}
}

func (r *fakeTemplateRepo) GetByCode(_ context.Context, code string) (*models.TestTemplate, error) {
	if t, ok := r.templates[code]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeTemplateRepo) List(_ context.Context) ([]*models.TestTemplate, error) {
	out := make([]*models.TestTemplate, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeTemplateRepo) Create(_ context.Context, tpl *models.TestTemplate) error {
	tpl.ID = uint(len(r.templates) + 1)
	r.templates[tpl.Code] = tpl
	return nil
}

func (r *fakeTemplateRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.templates)), nil
}

// paginate applies offset/limit to a slice
func paginate[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}
