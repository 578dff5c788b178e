package nutrition

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nutrilab/nutrilab/internal/platform/apperr"
)

// fakeRow assigns vals to the scan destinations positionally. A nil value
// leaves the destination at its zero value, as a SQL NULL would.
type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return errors.New("column count mismatch")
	}
	for i, v := range r.vals {
		if v == nil {
			continue
		}
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

func strp(s string) *string { return &s }

func TestScanRequest_NormalizesLegacyColumns(t *testing.T) {
	id := uuid.New()
	now := time.Now().UTC()
	row := fakeRow{vals: []any{
		id, "user_1", strp("NT2025-42"),
		strp(`["IBS"]`),         // conditions
		strp("dairy, nuts,"),    // allergies, legacy text
		nil,                     // diet_restrictions NULL
		strp(""),                // symptoms empty
		strp(`"aspirin, zinc"`), // medications as a JSON string
		strp("null"),            // dietary_preferences
		strp(`[1, "two", null]`),
		strp(`[]`),
		&Demographics{Age: 30, Gender: "Female", Weight: 60, Height: 165},
		nil,
		StatusPending, now, now,
	}}

	n, err := scanRequest(row)
	if err != nil {
		t.Fatalf("scanRequest: %v", err)
	}
	if n.ID != id || n.PatientID != "user_1" || n.Status != StatusPending {
		t.Errorf("unexpected header %+v", n)
	}
	checks := []struct {
		name string
		got  StringList
		want []string
	}{
		{"conditions", n.Conditions, []string{"IBS"}},
		{"allergies", n.Allergies, []string{"dairy", "nuts"}},
		{"diet_restrictions", n.DietRestrictions, []string{}},
		{"symptoms", n.Symptoms, []string{}},
		{"medications", n.Medications, []string{"aspirin", "zinc"}},
		{"dietary_preferences", n.DietaryPreferences, []string{}},
		{"triggers", n.Triggers, []string{"1", "two"}},
		{"concerns", n.Concerns, []string{}},
	}
	for _, c := range checks {
		if c.got == nil {
			t.Errorf("%s: expected non-nil slice", c.name)
		}
		if !sameItems(c.got, c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestScanPending_Summary(t *testing.T) {
	now := time.Now().UTC()
	vals := []any{
		uuid.New(), "user_2", nil,
		nil, nil, nil, nil, nil, nil, nil, nil,
		&Demographics{Age: 52, Gender: "Male"},
		nil, StatusPending, now, now,
		strp("Grace"), strp("grace@example.com"),
	}
	p, err := scanPending(fakeRow{vals: vals})
	if err != nil {
		t.Fatalf("scanPending: %v", err)
	}
	if p.Patient.Name != "Grace" || p.Patient.Email == nil || *p.Patient.Email != "grace@example.com" {
		t.Errorf("unexpected patient %+v", p.Patient)
	}
	if p.Patient.Age == nil || *p.Patient.Age != 52 {
		t.Error("expected age from demographics")
	}
}

func TestMapRowErr(t *testing.T) {
	if err := mapRowErr(pgx.ErrNoRows, "nutrition request", "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
	if err := mapRowErr(errors.New("conn refused"), "nutrition request", "x"); !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Errorf("expected StoreUnavailable, got %v", err)
	}
}

func TestStatusStrings(t *testing.T) {
	got := statusStrings([]Status{StatusPending, StatusApproved})
	if !reflect.DeepEqual(got, []string{"pending", "approved"}) {
		t.Errorf("unexpected %v", got)
	}
}
