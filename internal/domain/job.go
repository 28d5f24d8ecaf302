package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Common domain errors
var ErrNotFound = errors.New("resource not found")

// Job is a local job posting. Jobs pulled from the External System carry its id in VincereID.
type Job struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	YachtName      *string    `json:"yacht_name,omitempty"`
	Requirements   *string    `json:"requirements,omitempty"`
	Itinerary      *string    `json:"itinerary,omitempty"`
	SalaryMin      *int       `json:"salary_min,omitempty"`
	SalaryMax      *int       `json:"salary_max,omitempty"`
	SalaryCurrency *string    `json:"salary_currency,omitempty"`
	ContractType   *string    `json:"contract_type,omitempty"`
	HolidayPackage *string    `json:"holiday_package,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	Status         string     `json:"status"`
	VincereID      *string    `json:"vincere_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// HasExternalRef reports whether the job originated from the External System.
func (j *Job) HasExternalRef() bool {
	return j.VincereID != nil && strings.TrimSpace(*j.VincereID) != ""
}

// JobPatch is the result of mapping an External System position.
type JobPatch struct {
	Title          *string
	Description    *string
	YachtName      *string
	Requirements   *string
	Itinerary      *string
	SalaryMin      *int
	SalaryMax      *int
	SalaryCurrency *string
	ContractType   *string
	HolidayPackage *string
	StartDate      *time.Time
	Status         *string
}

// ApplyTo overwrites job fields with every non-nil patch value. Jobs are owned
// by the External System, so remote values win, but nil never clears.
func (p *JobPatch) ApplyTo(j *Job) {
	if p.Title != nil {
		j.Title = *p.Title
	}
	if p.Description != nil {
		j.Description = *p.Description
	}
	if p.Status != nil {
		j.Status = *p.Status
	}
	setStr := func(dst **string, src *string) {
		if src != nil {
			v := *src
			*dst = &v
		}
	}
	setStr(&j.YachtName, p.YachtName)
	setStr(&j.Requirements, p.Requirements)
	setStr(&j.Itinerary, p.Itinerary)
	setStr(&j.SalaryCurrency, p.SalaryCurrency)
	setStr(&j.ContractType, p.ContractType)
	setStr(&j.HolidayPackage, p.HolidayPackage)
	if p.SalaryMin != nil {
		v := *p.SalaryMin
		j.SalaryMin = &v
	}
	if p.SalaryMax != nil {
		v := *p.SalaryMax
		j.SalaryMax = &v
	}
	if p.StartDate != nil {
		v := *p.StartDate
		j.StartDate = &v
	}
}

type JobRepository interface {
	GetByID(ctx context.Context, id int64) (*Job, error)
	GetByExternalRef(ctx context.Context, externalRef string) (*Job, error)
	// UpsertByExternalRef inserts or updates a job keyed by its External System id.
	UpsertByExternalRef(ctx context.Context, job *Job) error
}
