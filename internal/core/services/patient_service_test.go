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

func newPatientFixture(t *testing.T) (*PatientService, *fakePatientRepo, *fakeUserRepo, *fakeLabTestRepo) {
	t.Helper()
	users := newFakeUserRepo()
	patients := newFakePatientRepo(users)
	tests := newFakeLabTestRepo()
	return NewPatientService(patients, users, tests, testConfig()), patients, users, tests
}

// TestCreatePatient provisions the patient and its login credential
// together, defaulting the username to the normalized phone.
func TestCreatePatient(t *testing.T) {
	svc, _, users, _ := newPatientFixture(t)

	out, err := svc.Create(context.Background(), &CreatePatientInput{
		Name:   "Sara Hassan Ibrahim Mostafa",
		Age:    45,
		Gender: domain.GenderFemale,
		Phone:  "01298765432",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if out.Username != "201298765432" {
		t.Errorf("username = %q, want normalized phone", out.Username)
	}
	if out.Password == "" {
		t.Error("expected a generated password in the output")
	}
	if out.Patient.Phone != "201298765432" {
		t.Errorf("patient phone = %q, want normalized", out.Patient.Phone)
	}

	user, err := users.GetByUsername(context.Background(), out.Username)
	if err != nil {
		t.Fatalf("login account was not created: %v", err)
	}
	if user.Role != domain.RoleClient {
		t.Errorf("account role = %s, want CLIENT", user.Role)
	}
	if user.PatientID == nil || *user.PatientID != out.Patient.ID {
		t.Error("account is not linked to the patient")
	}
}

// TestCreatePatient_ExplicitCredential keeps a caller-supplied username
// and password; the output then omits the password.
func TestCreatePatient_ExplicitCredential(t *testing.T) {
	svc, _, _, _ := newPatientFixture(t)

	out, err := svc.Create(context.Background(), &CreatePatientInput{
		Name:     "Sara Hassan Ibrahim Mostafa",
		Age:      45,
		Gender:   domain.GenderFemale,
		Phone:    "01298765432",
		Username: "sara45",
		Password: "chosen-password",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if out.Username != "sara45" {
		t.Errorf("username = %q, want %q", out.Username, "sara45")
	}
	if out.Password != "" {
		t.Error("caller-supplied password must not be echoed back")
	}
}

// TestCreatePatient_DuplicateUsername rejects a taken username
func TestCreatePatient_DuplicateUsername(t *testing.T) {
	svc, _, _, _ := newPatientFixture(t)

	input := &CreatePatientInput{
		Name:   "Sara Hassan Ibrahim Mostafa",
		Age:    45,
		Gender: domain.GenderFemale,
		Phone:  "01298765432",
	}
	if _, err := svc.Create(context.Background(), input); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}
	if _, err := svc.Create(context.Background(), input); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("second Create error = %v, want ErrUsernameTaken", err)
	}
}

// TestDeletePatient_KeepsTests removes the patient and its credential
// but leaves the lab test history retrievable under the copied name.
func TestDeletePatient_KeepsTests(t *testing.T) {
	svc, patients, users, tests := newPatientFixture(t)

	out, err := svc.Create(context.Background(), &CreatePatientInput{
		Name:   "Sara Hassan Ibrahim Mostafa",
		Age:    45,
		Gender: domain.GenderFemale,
		Phone:  "01298765432",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	test := &models.LabTest{
		PublicID:      uuid.New().String(),
		PatientID:     out.Patient.ID,
		PatientName:   out.Patient.Name,
		PatientPhone:  out.Patient.Phone,
		TestName:      "CBC",
		Status:        domain.StatusCompleted,
		RequestedDate: time.Now(),
	}
	if err := tests.Create(context.Background(), test); err != nil {
		t.Fatalf("failed to seed test: %v", err)
	}

	if err := svc.Delete(context.Background(), out.Patient.PublicID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if len(patients.patients) != 0 {
		t.Error("patient row was not removed")
	}
	if _, err := users.GetByUsername(context.Background(), out.Username); err == nil {
		t.Error("login credential survived patient deletion")
	}

	orphaned, err := tests.ListByPatient(context.Background(), out.Patient.ID)
	if err != nil {
		t.Fatalf("ListByPatient returned error: %v", err)
	}
	if len(orphaned) != 1 {
		t.Fatalf("orphaned tests = %d, want 1", len(orphaned))
	}
	if orphaned[0].PatientName != "Sara Hassan Ibrahim Mostafa" {
		t.Errorf("orphaned test lost its copied patient name: %q", orphaned[0].PatientName)
	}
}

// TestUpdatePatient_KeepsDenormalizedRecords edits the registry row
// without rewriting the name copied onto existing tests.
func TestUpdatePatient_KeepsDenormalizedRecords(t *testing.T) {
	svc, _, _, tests := newPatientFixture(t)

	out, err := svc.Create(context.Background(), &CreatePatientInput{
		Name:   "Sara Hassan Ibrahim Mostafa",
		Age:    45,
		Gender: domain.GenderFemale,
		Phone:  "01298765432",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	test := &models.LabTest{
		PublicID:      uuid.New().String(),
		PatientID:     out.Patient.ID,
		PatientName:   out.Patient.Name,
		TestName:      "CBC",
		Status:        domain.StatusPending,
		RequestedDate: time.Now(),
	}
	if err := tests.Create(context.Background(), test); err != nil {
		t.Fatalf("failed to seed test: %v", err)
	}

	updated, err := svc.Update(context.Background(), out.Patient.PublicID, &UpdatePatientInput{
		Name: "Sara Hassan Ibrahim Kamel",
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Name != "Sara Hassan Ibrahim Kamel" {
		t.Errorf("name = %q, want updated", updated.Name)
	}

	history, _ := tests.ListByPatient(context.Background(), out.Patient.ID)
	if history[0].PatientName != "Sara Hassan Ibrahim Mostafa" {
		t.Errorf("test record name = %q, want the original filed value", history[0].PatientName)
	}
}

// TestUpdatePatient_RenamesLogin moves the portal credential to the new
// username, rejecting collisions.
func TestUpdatePatient_RenamesLogin(t *testing.T) {
	svc, _, users, _ := newPatientFixture(t)
	ctx := context.Background()

	out, err := svc.Create(ctx, &CreatePatientInput{
		Name:   "Sara Hassan Ibrahim Mostafa",
		Age:    45,
		Gender: domain.GenderFemale,
		Phone:  "01298765432",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	updated, err := svc.Update(ctx, out.Patient.PublicID, &UpdatePatientInput{Username: "sara45"})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Username != "sara45" {
		t.Errorf("username = %q, want sara45", updated.Username)
	}

	user, err := users.GetByUsername(ctx, "sara45")
	if err != nil {
		t.Fatalf("renamed login not found: %v", err)
	}
	if user.Email != "sara45@lab-mostaqbal.web.app" {
		t.Errorf("email = %q, want the re-derived address", user.Email)
	}
	if _, err := users.GetByUsername(ctx, out.Username); err == nil {
		t.Error("old username still resolves to an account")
	}

	// Renaming onto a taken username is rejected.
	if _, err := svc.Create(ctx, &CreatePatientInput{
		Name:   "Ahmed Mohamed Ali Abdullah",
		Age:    30,
		Gender: domain.GenderMale,
		Phone:  "01012345678",
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Update(ctx, out.Patient.PublicID, &UpdatePatientInput{Username: "201012345678"}); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("collision error = %v, want ErrUsernameTaken", err)
	}
}

// TestListPatients_Search filters by name or phone substring
func TestListPatients_Search(t *testing.T) {
	svc, _, _, _ := newPatientFixture(t)

	for _, p := range []CreatePatientInput{
		{Name: "Sara Hassan Ibrahim Mostafa", Age: 45, Gender: domain.GenderFemale, Phone: "01298765432"},
		{Name: "Ahmed Mohamed Ali Abdullah", Age: 30, Gender: domain.GenderMale, Phone: "01012345678"},
	} {
		if _, err := svc.Create(context.Background(), &p); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	byName, total, err := svc.List(context.Background(), "Ahmed", 0, 20)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 1 || len(byName) != 1 {
		t.Fatalf("search by name matched %d, want 1", total)
	}
	if byName[0].Name != "Ahmed Mohamed Ali Abdullah" {
		t.Errorf("matched %q, want Ahmed's record", byName[0].Name)
	}

	byPhone, total, err := svc.List(context.Background(), "20129", 0, 20)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 1 || byPhone[0].Name != "Sara Hassan Ibrahim Mostafa" {
		t.Errorf("search by phone matched %d, want Sara's record", total)
	}

	all, total, err := svc.List(context.Background(), "", 0, 20)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Errorf("unfiltered list = %d, want 2", total)
	}
}
