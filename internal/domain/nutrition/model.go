// Package nutrition implements the intake and status pipeline for patient
// nutrition requests.
package nutrition

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a nutrition request.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
)

// statusRank orders the lifecycle. Transitions must strictly increase rank,
// so approved and rejected are both terminal.
var statusRank = map[Status]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusApproved:   2,
	StatusRejected:   2,
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := statusRank[st]; !ok {
		return "", fmt.Errorf("invalid status %q", s)
	}
	return st, nil
}

// CanTransitionTo reports whether moving from s to next is a forward move.
func (s Status) CanTransitionTo(next Status) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Conditions accepted by the intake form.
var ValidConditions = []string{"IBS", "Celiac Disease", "Gastritis"}

func validCondition(c string) bool {
	for _, v := range ValidConditions {
		if v == c {
			return true
		}
	}
	return false
}

// Demographics is stored as a JSONB document.
type Demographics struct {
	Age    int     `json:"age"`
	Gender string  `json:"gender"`
	Weight float64 `json:"weight"`
	Height float64 `json:"height"`
}

// NutritionRequest maps to the nutrition_requests table.
type NutritionRequest struct {
	ID                 uuid.UUID     `json:"id"`
	PatientID          string        `json:"patient_id"`
	NutriCode          *string       `json:"nutri_code,omitempty"`
	Conditions         StringList    `json:"conditions"`
	Allergies          StringList    `json:"allergies"`
	DietRestrictions   StringList    `json:"diet_restrictions"`
	Symptoms           StringList    `json:"symptoms"`
	Medications        StringList    `json:"medications"`
	DietaryPreferences StringList    `json:"dietary_preferences"`
	Triggers           StringList    `json:"triggers"`
	Concerns           StringList    `json:"concerns"`
	Demographics       *Demographics `json:"demographics,omitempty"`
	DietaryPreference  *string       `json:"dietary_preference,omitempty"`
	Status             Status        `json:"status"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// PatientSummary is the patient detail shown next to a pending request.
type PatientSummary struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  *string `json:"email"`
	Age    *int    `json:"age"`
	Gender *string `json:"gender"`
}

// PendingRequest is a request joined with its patient, as listed to doctors.
type PendingRequest struct {
	NutritionRequest
	Patient PatientSummary `json:"patient"`
}

const unknownPatientName = "Unknown"

// summarize fills the patient summary from the user row (when present) and
// the request demographics.
func summarize(r *NutritionRequest, name, email *string) PatientSummary {
	p := PatientSummary{ID: r.PatientID, Name: unknownPatientName, Email: email}
	if name != nil && *name != "" {
		p.Name = *name
	}
	if r.Demographics != nil {
		age := r.Demographics.Age
		gender := r.Demographics.Gender
		p.Age = &age
		p.Gender = &gender
	}
	return p
}
