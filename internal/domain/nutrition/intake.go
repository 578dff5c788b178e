package nutrition

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nutrilab/nutrilab/internal/platform/apperr"
	"github.com/nutrilab/nutrilab/internal/platform/auth"
)

// IntakeForm is the body of POST /api/patient-information. Every list field
// accepts a JSON array or one comma-delimited string.
type IntakeForm struct {
	Name               string     `json:"name,omitempty"`
	NutriCode          string     `json:"nutri_code,omitempty"`
	Conditions         StringList `json:"conditions"`
	Age                int        `json:"age"`
	Gender             string     `json:"gender"`
	Weight             float64    `json:"weight"`
	Height             float64    `json:"height"`
	Allergies          StringList `json:"allergies"`
	Medications        StringList `json:"medications"`
	Symptoms           StringList `json:"symptoms"`
	DietaryPreferences StringList `json:"dietary_preferences"`
	DietRestrictions   StringList `json:"diet_restrictions"`
	DietRestriction    StringList `json:"diet_restriction,omitempty"` // legacy singular key
	Triggers           StringList `json:"triggers"`
	Concerns           StringList `json:"concerns"`
	DietaryPreference  string     `json:"dietary_preference,omitempty"`
}

// Validate checks the form without touching the store.
func (f *IntakeForm) Validate() error {
	v := apperr.ValidationErrors{}
	if len(f.Conditions) == 0 {
		v.Add("conditions", "is required")
	}
	for _, c := range f.Conditions {
		if !validCondition(c) {
			v.Add("conditions", "must be one of "+strings.Join(ValidConditions, ", "))
		}
	}
	if f.Age <= 0 {
		v.Add("age", "must be a positive integer")
	}
	if strings.TrimSpace(f.Gender) == "" {
		v.Add("gender", "is required")
	}
	if f.Weight <= 0 {
		v.Add("weight", "must be positive")
	}
	if f.Height <= 0 {
		v.Add("height", "must be positive")
	}
	return v.Err()
}

// ToRequest builds the pending record owned by patientID.
func (f *IntakeForm) ToRequest(patientID string) *NutritionRequest {
	restrictions := f.DietRestrictions
	if len(restrictions) == 0 {
		restrictions = f.DietRestriction
	}
	return &NutritionRequest{
		PatientID:          patientID,
		NutriCode:          optional(f.NutriCode),
		Conditions:         orEmpty(f.Conditions),
		Allergies:          orEmpty(f.Allergies),
		DietRestrictions:   orEmpty(restrictions),
		Symptoms:           orEmpty(f.Symptoms),
		Medications:        orEmpty(f.Medications),
		DietaryPreferences: orEmpty(f.DietaryPreferences),
		Triggers:           orEmpty(f.Triggers),
		Concerns:           orEmpty(f.Concerns),
		Demographics: &Demographics{
			Age:    f.Age,
			Gender: strings.TrimSpace(f.Gender),
			Weight: f.Weight,
			Height: f.Height,
		},
		DietaryPreference: optional(f.DietaryPreference),
		Status:            StatusPending,
	}
}

func orEmpty(l StringList) StringList {
	if l == nil {
		return StringList{}
	}
	return l
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// SubmissionState tracks one intake submission.
type SubmissionState string

const (
	StateIdle       SubmissionState = "idle"
	StateSubmitting SubmissionState = "submitting"
	StateSuccess    SubmissionState = "success"
	StateError      SubmissionState = "error"
)

// RedirectHint tells the client where to navigate after a successful intake.
type RedirectHint struct {
	To      string `json:"to"`
	AfterMS int64  `json:"after_ms"`
}

const requestsPage = "/patient/requests"

// SubmitFunc persists a validated intake.
type SubmitFunc func(ctx context.Context, id *auth.Identity, form *IntakeForm) (*NutritionRequest, error)

// IntakeResult is the 201 body of a successful submission.
type IntakeResult struct {
	Request  *NutritionRequest `json:"request"`
	Redirect RedirectHint      `json:"redirect"`
}

// IntakeController runs a single submission through
// idle -> submitting -> success | error. A controller is single use; a
// failed submission is reported, never retried.
type IntakeController struct {
	submit SubmitFunc
	delay  time.Duration

	mu    sync.Mutex
	state SubmissionState
	err   error
}

func NewIntakeController(submit SubmitFunc, redirectDelay time.Duration) *IntakeController {
	return &IntakeController{submit: submit, delay: redirectDelay, state: StateIdle}
}

func (c *IntakeController) State() SubmissionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err is the failure that moved the controller to StateError.
func (c *IntakeController) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *IntakeController) Submit(ctx context.Context, id *auth.Identity, form *IntakeForm) (*IntakeResult, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		return nil, apperr.Conflict("intake submission already %s", state)
	}
	c.state = StateSubmitting
	c.mu.Unlock()

	rec, err := c.submit(ctx, id, form)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateError
		c.err = err
		return nil, err
	}
	c.state = StateSuccess
	return &IntakeResult{
		Request:  rec,
		Redirect: RedirectHint{To: requestsPage, AfterMS: c.delay.Milliseconds()},
	}, nil
}
