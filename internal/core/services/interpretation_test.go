package services

import (
	"context"
	"errors"
	"testing"

	"mostaqbal-lab/internal/core/domain"
)

// seedResult registers a test and records a result value on it
func (f *labTestFixture) seedResult(t *testing.T, value, unit, refRange string) string {
	t.Helper()
	patient := f.seedPatient(t)

	resp, err := f.svc.Create(context.Background(), &CreateTestInput{
		PatientPublicID: patient.PublicID,
		TestName:        "S. Creatinine",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := f.svc.RecordResult(context.Background(), resp.PublicID, &RecordResultInput{
		Value:          value,
		Unit:           unit,
		ReferenceRange: refRange,
		Version:        resp.Version,
	}); err != nil {
		t.Fatalf("RecordResult returned error: %v", err)
	}
	return resp.PublicID
}

// TestInterpret_Flags classifies values against a two-sided range
func TestInterpret_Flags(t *testing.T) {
	cases := []struct {
		value string
		want  domain.ResultFlag
	}{
		{"0.4", domain.FlagLow},
		{"0.9", domain.FlagNormal},
		{"0.6", domain.FlagNormal},
		{"1.2", domain.FlagNormal},
		{"1.8", domain.FlagHigh},
	}

	for _, tc := range cases {
		f := newLabTestFixture(t)
		publicID := f.seedResult(t, tc.value, "mg/dL", "0.6 - 1.2")

		out, err := f.svc.Interpret(context.Background(), publicID)
		if err != nil {
			t.Fatalf("Interpret(%q) returned error: %v", tc.value, err)
		}
		if out.Flag != tc.want {
			t.Errorf("Interpret(%q) flag = %s, want %s", tc.value, out.Flag, tc.want)
		}
		if out.Summary == "" {
			t.Errorf("Interpret(%q) returned an empty summary", tc.value)
		}
		if tc.want == domain.FlagNormal && out.Advice != "" {
			t.Errorf("Interpret(%q) carries advice for an in-range value: %q", tc.value, out.Advice)
		}
		if tc.want != domain.FlagNormal && out.Advice == "" {
			t.Errorf("Interpret(%q) missing advice for an out-of-range value", tc.value)
		}
	}
}

// TestInterpret_OneSidedRanges reads "< x" and "> x" range notations
func TestInterpret_OneSidedRanges(t *testing.T) {
	f := newLabTestFixture(t)
	publicID := f.seedResult(t, "240", "mg/dL", "< 200")

	out, err := f.svc.Interpret(context.Background(), publicID)
	if err != nil {
		t.Fatalf("Interpret returned error: %v", err)
	}
	if out.Flag != domain.FlagHigh {
		t.Errorf("flag = %s, want high", out.Flag)
	}

	f2 := newLabTestFixture(t)
	lowID := f2.seedResult(t, "45", "mL/min", "> 60")

	out, err = f2.svc.Interpret(context.Background(), lowID)
	if err != nil {
		t.Fatalf("Interpret returned error: %v", err)
	}
	if out.Flag != domain.FlagLow {
		t.Errorf("flag = %s, want low", out.Flag)
	}
}

// TestInterpret_Indeterminate leaves free-text values and unreadable
// ranges to the specialist instead of guessing.
func TestInterpret_Indeterminate(t *testing.T) {
	f := newLabTestFixture(t)
	textID := f.seedResult(t, "Positive", "", "Negative")

	out, err := f.svc.Interpret(context.Background(), textID)
	if err != nil {
		t.Fatalf("Interpret returned error: %v", err)
	}
	if out.Flag != domain.FlagIndeterminate {
		t.Errorf("free-text flag = %s, want indeterminate", out.Flag)
	}

	f2 := newLabTestFixture(t)
	noRangeID := f2.seedResult(t, "5.4", "g/dL", "")

	out, err = f2.svc.Interpret(context.Background(), noRangeID)
	if err != nil {
		t.Fatalf("Interpret returned error: %v", err)
	}
	if out.Flag != domain.FlagIndeterminate {
		t.Errorf("missing-range flag = %s, want indeterminate", out.Flag)
	}
}

// TestInterpret_RequiresResult rejects tests without a recorded value
func TestInterpret_RequiresResult(t *testing.T) {
	f := newLabTestFixture(t)
	patient := f.seedPatient(t)

	resp, err := f.svc.Create(context.Background(), &CreateTestInput{
		PatientPublicID: patient.PublicID,
		TestName:        "CBC",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := f.svc.Interpret(context.Background(), resp.PublicID); !errors.Is(err, ErrNoResultValue) {
		t.Errorf("error = %v, want ErrNoResultValue", err)
	}
	if _, err := f.svc.Interpret(context.Background(), "missing"); !errors.Is(err, ErrTestNotFound) {
		t.Errorf("missing test error = %v, want ErrTestNotFound", err)
	}
}
