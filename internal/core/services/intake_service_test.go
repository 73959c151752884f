package services

import (
	"context"
	"errors"
	"testing"

	"mostaqbal-lab/internal/core/domain"
)

func newIntakeFixture(t *testing.T) (*IntakeService, *fakePatientRepo, *fakeUserRepo, *fakeLabTestRepo, *fakeStaffNotifRepo) {
	t.Helper()
	users := newFakeUserRepo()
	patients := newFakePatientRepo(users)
	tests := newFakeLabTestRepo()
	outreach := newFakeStaffNotifRepo()
	svc := NewIntakeService(patients, users, tests, outreach, testConfig())
	return svc, patients, users, tests, outreach
}

// TestRequestHomeVisit walks the full intake flow: patient registered,
// credential provisioned, request filed and outreach queued.
func TestRequestHomeVisit(t *testing.T) {
	svc, patients, users, tests, outreach := newIntakeFixture(t)

	lat, lng := 30.0444, 31.2357
	out, err := svc.RequestHomeVisit(context.Background(), &HomeVisitInput{
		Name:   "Ahmed Mohamed Ali Abdullah",
		Age:    30,
		Gender: domain.GenderMale,
		Phone:  "01012345678",
		Lat:    &lat,
		Lng:    &lng,
		Notes:  "morning preferred",
	})
	if err != nil {
		t.Fatalf("RequestHomeVisit returned error: %v", err)
	}

	// Credential: username is the normalized phone, password shown once.
	if out.Username != "201012345678" {
		t.Errorf("username = %q, want %q", out.Username, "201012345678")
	}
	if len(out.Password) < 8 {
		t.Errorf("generated password too short: %q", out.Password)
	}

	// Patient row exists with the normalized phone.
	if len(patients.patients) != 1 {
		t.Fatalf("patient count = %d, want 1", len(patients.patients))
	}
	var patientID uint
	for id, p := range patients.patients {
		patientID = id
		if p.Phone != "201012345678" {
			t.Errorf("patient phone = %q, want %q", p.Phone, "201012345678")
		}
	}

	// Login account linked to the patient in the same flow.
	user, err := users.GetByPatientID(context.Background(), patientID)
	if err != nil {
		t.Fatalf("no login account linked to the patient: %v", err)
	}
	if user.Role != domain.RoleClient {
		t.Errorf("account role = %s, want CLIENT", user.Role)
	}

	// Request filed as pending so it shows up in the staff work queue,
	// with the location attached.
	if out.Request.Status != domain.StatusPending {
		t.Errorf("request status = %s, want pending", out.Request.Status)
	}
	if out.Request.TestName != "Home Visit" {
		t.Errorf("test name = %q, want %q", out.Request.TestName, "Home Visit")
	}
	if out.Request.Location == nil || out.Request.Location.Lat != lat {
		t.Error("request location was not attached")
	}
	if len(tests.tests) != 1 {
		t.Errorf("test count = %d, want 1", len(tests.tests))
	}

	// Outreach queued as new.
	pending, err := outreach.CountByStatus(context.Background(), domain.OutreachNew)
	if err != nil {
		t.Fatalf("CountByStatus returned error: %v", err)
	}
	if pending != 1 {
		t.Errorf("pending outreach = %d, want 1", pending)
	}
}

// TestRequestHomeVisit_ShortName rejects names with fewer than four
// parts, whitespace-insensitively.
func TestRequestHomeVisit_ShortName(t *testing.T) {
	svc, patients, _, _, _ := newIntakeFixture(t)

	for _, name := range []string{"Ahmed", "Ahmed Mohamed", "  Ahmed   Mohamed  Ali  "} {
		_, err := svc.RequestHomeVisit(context.Background(), &HomeVisitInput{
			Name:   name,
			Age:    30,
			Gender: domain.GenderMale,
			Phone:  "01012345678",
		})
		if !errors.Is(err, ErrNameTooShort) {
			t.Errorf("RequestHomeVisit(%q) error = %v, want ErrNameTooShort", name, err)
		}
	}
	if len(patients.patients) != 0 {
		t.Errorf("patient count = %d, want 0 after rejected requests", len(patients.patients))
	}
}

// TestRequestHomeVisit_DuplicatePhone rejects a second request for the
// same number since the username is already taken.
func TestRequestHomeVisit_DuplicatePhone(t *testing.T) {
	svc, _, _, _, _ := newIntakeFixture(t)

	input := &HomeVisitInput{
		Name:   "Ahmed Mohamed Ali Abdullah",
		Age:    30,
		Gender: domain.GenderMale,
		Phone:  "01012345678",
	}
	if _, err := svc.RequestHomeVisit(context.Background(), input); err != nil {
		t.Fatalf("first request returned error: %v", err)
	}

	// Same number with different formatting still collides.
	input.Phone = "010 1234 5678"
	if _, err := svc.RequestHomeVisit(context.Background(), input); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("second request error = %v, want ErrUsernameTaken", err)
	}
}

// TestRequestHomeVisit_Validation covers age, gender and phone checks
func TestRequestHomeVisit_Validation(t *testing.T) {
	svc, _, _, _, _ := newIntakeFixture(t)

	base := HomeVisitInput{
		Name:   "Ahmed Mohamed Ali Abdullah",
		Age:    30,
		Gender: domain.GenderMale,
		Phone:  "01012345678",
	}

	badAge := base
	badAge.Age = 0
	if _, err := svc.RequestHomeVisit(context.Background(), &badAge); !errors.Is(err, ErrInvalidAge) {
		t.Errorf("age 0 error = %v, want ErrInvalidAge", err)
	}

	badGender := base
	badGender.Gender = "other"
	if _, err := svc.RequestHomeVisit(context.Background(), &badGender); !errors.Is(err, ErrInvalidGender) {
		t.Errorf("bad gender error = %v, want ErrInvalidGender", err)
	}

	badPhone := base
	badPhone.Phone = "no digits"
	if _, err := svc.RequestHomeVisit(context.Background(), &badPhone); !errors.Is(err, ErrInvalidPhone) {
		t.Errorf("bad phone error = %v, want ErrInvalidPhone", err)
	}
}

// TestRequestHomeVisit_CustomTestName keeps a caller-supplied test name
func TestRequestHomeVisit_CustomTestName(t *testing.T) {
	svc, _, _, _, _ := newIntakeFixture(t)

	out, err := svc.RequestHomeVisit(context.Background(), &HomeVisitInput{
		Name:     "Sara Hassan Ibrahim Mostafa",
		Age:      45,
		Gender:   domain.GenderFemale,
		Phone:    "01298765432",
		TestName: "Fasting Blood Sugar",
	})
	if err != nil {
		t.Fatalf("RequestHomeVisit returned error: %v", err)
	}
	if out.Request.TestName != "Fasting Blood Sugar" {
		t.Errorf("test name = %q, want %q", out.Request.TestName, "Fasting Blood Sugar")
	}
}
