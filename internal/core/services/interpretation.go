package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"mostaqbal-lab/internal/core/domain"

	"gorm.io/gorm"
)

// Interpretation errors
var (
	ErrNoResultValue = errors.New("test has no recorded result value")
)

// ResultInterpretation is a deterministic clinical read of a recorded
// value against the test's reference range. It flags the value and
// phrases the finding for staff; it never replaces a specialist's
// review.
type ResultInterpretation struct {
	TestName       string            `json:"test_name"`
	ResultValue    string            `json:"result_value"`
	Unit           string            `json:"unit,omitempty"`
	ReferenceRange string            `json:"reference_range,omitempty"`
	Flag           domain.ResultFlag `json:"flag"`
	Summary        string            `json:"summary"`
	Advice         string            `json:"advice,omitempty"`
}

// Interpret assesses a test's recorded value against its reference
// range. Free-text values and ranges the parser cannot read come back
// flagged indeterminate rather than as errors: the record is fine, it
// just needs a human.
func (s *LabTestService) Interpret(ctx context.Context, publicID string) (*ResultInterpretation, error) {
	test, err := s.testRepo.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestNotFound
		}
		return nil, err
	}

	value := strings.TrimSpace(test.ResultValue)
	if value == "" {
		return nil, ErrNoResultValue
	}

	out := &ResultInterpretation{
		TestName:       test.TestName,
		ResultValue:    value,
		Unit:           test.Unit,
		ReferenceRange: test.ReferenceRange,
	}

	numeric, err := strconv.ParseFloat(value, 64)
	if err != nil {
		out.Flag = domain.FlagIndeterminate
		out.Summary = fmt.Sprintf("The %s result is not a plain numeric value and needs review by the lab specialist.", test.TestName)
		return out, nil
	}

	low, high, ok := parseReferenceRange(test.ReferenceRange)
	if !ok {
		out.Flag = domain.FlagIndeterminate
		out.Summary = fmt.Sprintf("No usable reference range is recorded for %s; the value cannot be assessed automatically.", test.TestName)
		return out, nil
	}

	switch {
	case low != nil && numeric < *low:
		out.Flag = domain.FlagLow
		out.Summary = fmt.Sprintf("The %s result %s %s is below the reference range %s.", test.TestName, value, test.Unit, test.ReferenceRange)
		out.Advice = "The value is outside the reference range; a physician consultation is recommended."
	case high != nil && numeric > *high:
		out.Flag = domain.FlagHigh
		out.Summary = fmt.Sprintf("The %s result %s %s is above the reference range %s.", test.TestName, value, test.Unit, test.ReferenceRange)
		out.Advice = "The value is outside the reference range; a physician consultation is recommended."
	default:
		out.Flag = domain.FlagNormal
		out.Summary = fmt.Sprintf("The %s result %s %s is within the reference range %s.", test.TestName, value, test.Unit, test.ReferenceRange)
	}

	return out, nil
}

// parseReferenceRange reads the range notations the catalog uses:
// "0.6 - 1.2" bounds both sides, "< 200" bounds only the top and
// "> 60" only the bottom. A nil bound means unbounded on that side.
func parseReferenceRange(raw string) (low, high *float64, ok bool) {
	r := strings.TrimSpace(raw)
	if r == "" {
		return nil, nil, false
	}

	if strings.HasPrefix(r, "<") {
		v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(r, "<")), 64)
		if err != nil {
			return nil, nil, false
		}
		return nil, &v, true
	}
	if strings.HasPrefix(r, ">") {
		v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(r, ">")), 64)
		if err != nil {
			return nil, nil, false
		}
		return &v, nil, true
	}

	parts := strings.SplitN(r, "-", 2)
	if len(parts) != 2 {
		return nil, nil, false
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, nil, false
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, nil, false
	}
	if hi < lo {
		return nil, nil, false
	}
	return &lo, &hi, true
}
