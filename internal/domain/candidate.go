package domain

import (
	"context"
	"strings"
	"time"
)

// Internal candidate field names. These are the names accepted by SyncUpdate
// as the "changed fields" subset.
const (
	FieldFirstName          = "first_name"
	FieldLastName           = "last_name"
	FieldEmail              = "email"
	FieldPhone              = "phone"
	FieldDateOfBirth        = "date_of_birth"
	FieldGender             = "gender"
	FieldNationality        = "nationality"
	FieldSecondNationality  = "second_nationality"
	FieldMaritalStatus      = "marital_status"
	FieldCurrentLocation    = "current_location"
	FieldPrimaryPosition    = "primary_position"
	FieldPositionCategory   = "position_category"
	FieldYachtTypes         = "preferred_yacht_types"
	FieldYachtSize          = "preferred_yacht_size"
	FieldContractTypes      = "preferred_contract_types"
	FieldRegions            = "preferred_regions"
	FieldDesiredSalary      = "desired_salary"
	FieldHasSTCW            = "has_stcw"
	FieldHasENG1            = "has_eng1"
	FieldHighestLicense     = "highest_license"
	FieldSecondLicense      = "second_license"
	FieldHasB1B2            = "has_b1b2"
	FieldHasSchengen        = "has_schengen"
	FieldIsSmoker           = "is_smoker"
	FieldHasVisibleTattoos  = "has_visible_tattoos"
	FieldIsCouple           = "is_couple"
	FieldPartnerName        = "partner_name"
	FieldPartnerPosition    = "partner_position"
	FieldAvailabilityStatus = "availability_status"
	FieldAvailableFrom      = "available_from"
)

// Candidate is the internal candidate record. Pointer fields are nullable;
// nil means "not tracked locally", which is never pushed as a clear.
type Candidate struct {
	ID     string  `json:"id"`
	UserID *string `json:"user_id,omitempty"`
	Email  string  `json:"email"`

	FirstName         *string    `json:"first_name,omitempty"`
	LastName          *string    `json:"last_name,omitempty"`
	Phone             *string    `json:"phone,omitempty"`
	DateOfBirth       *time.Time `json:"date_of_birth,omitempty"`
	Gender            *string    `json:"gender,omitempty"`
	Nationality       *string    `json:"nationality,omitempty"`
	SecondNationality *string    `json:"second_nationality,omitempty"`
	MaritalStatus     *string    `json:"marital_status,omitempty"`
	CurrentLocation   *string    `json:"current_location,omitempty"`

	PrimaryPosition  *string `json:"primary_position,omitempty"`
	PositionCategory *string `json:"position_category,omitempty"`

	PreferredYachtTypes    []string `json:"preferred_yacht_types,omitempty"`
	PreferredYachtSizeMin  *int     `json:"preferred_yacht_size_min,omitempty"`
	PreferredYachtSizeMax  *int     `json:"preferred_yacht_size_max,omitempty"`
	PreferredContractTypes []string `json:"preferred_contract_types,omitempty"`
	PreferredRegions       []string `json:"preferred_regions,omitempty"`

	DesiredSalaryMin *int    `json:"desired_salary_min,omitempty"`
	DesiredSalaryMax *int    `json:"desired_salary_max,omitempty"`
	SalaryCurrency   *string `json:"salary_currency,omitempty"`

	HasSTCW           *bool   `json:"has_stcw,omitempty"`
	HasENG1           *bool   `json:"has_eng1,omitempty"`
	HighestLicense    *string `json:"highest_license,omitempty"`
	SecondLicense     *string `json:"second_license,omitempty"`
	HasB1B2           *bool   `json:"has_b1b2,omitempty"`
	HasSchengen       *bool   `json:"has_schengen,omitempty"`
	IsSmoker          *bool   `json:"is_smoker,omitempty"`
	HasVisibleTattoos *bool   `json:"has_visible_tattoos,omitempty"`

	IsCouple        *bool   `json:"is_couple,omitempty"`
	PartnerName     *string `json:"partner_name,omitempty"`
	PartnerPosition *string `json:"partner_position,omitempty"`

	AvailabilityStatus *string    `json:"availability_status,omitempty"`
	AvailableFrom      *time.Time `json:"available_from,omitempty"`

	PhotoURL *string `json:"photo_url,omitempty"`

	VincereID    *string    `json:"vincere_id,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// HasExternalRef reports whether the candidate is linked to an External System record.
func (c *Candidate) HasExternalRef() bool {
	return c.VincereID != nil && strings.TrimSpace(*c.VincereID) != ""
}

// CandidatePatch is a partial candidate produced by mapping an External
// System record. Nil fields carry no information.
type CandidatePatch struct {
	FirstName         *string
	LastName          *string
	Phone             *string
	DateOfBirth       *time.Time
	Gender            *string
	Nationality       *string
	SecondNationality *string
	MaritalStatus     *string
	CurrentLocation   *string

	PrimaryPosition  *string
	PositionCategory *string

	PreferredYachtTypes    []string
	PreferredYachtSizeMin  *int
	PreferredYachtSizeMax  *int
	PreferredContractTypes []string
	PreferredRegions       []string

	DesiredSalaryMin *int
	DesiredSalaryMax *int
	SalaryCurrency   *string

	HasSTCW           *bool
	HasENG1           *bool
	HighestLicense    *string
	SecondLicense     *string
	HasB1B2           *bool
	HasSchengen       *bool
	IsSmoker          *bool
	HasVisibleTattoos *bool

	IsCouple        *bool
	PartnerName     *string
	PartnerPosition *string

	AvailabilityStatus *string
	AvailableFrom      *time.Time
}

// ApplyMissing copies every non-nil patch value into c where c has no value
// yet. Existing local data is never replaced. It returns the names of the
// fields that were filled.
func (p *CandidatePatch) ApplyMissing(c *Candidate) []string {
	var filled []string

	str := func(name string, dst **string, src *string) {
		if src == nil || strings.TrimSpace(*src) == "" {
			return
		}
		if *dst != nil && strings.TrimSpace(**dst) != "" {
			return
		}
		v := *src
		*dst = &v
		filled = append(filled, name)
	}
	integer := func(name string, dst **int, src *int) {
		if src == nil || *dst != nil {
			return
		}
		v := *src
		*dst = &v
		filled = append(filled, name)
	}
	boolean := func(name string, dst **bool, src *bool) {
		if src == nil || *dst != nil {
			return
		}
		v := *src
		*dst = &v
		filled = append(filled, name)
	}
	date := func(name string, dst **time.Time, src *time.Time) {
		if src == nil || *dst != nil {
			return
		}
		v := *src
		*dst = &v
		filled = append(filled, name)
	}
	list := func(name string, dst *[]string, src []string) {
		if len(src) == 0 || len(*dst) > 0 {
			return
		}
		*dst = append([]string(nil), src...)
		filled = append(filled, name)
	}

	str(FieldFirstName, &c.FirstName, p.FirstName)
	str(FieldLastName, &c.LastName, p.LastName)
	str(FieldPhone, &c.Phone, p.Phone)
	date(FieldDateOfBirth, &c.DateOfBirth, p.DateOfBirth)
	str(FieldGender, &c.Gender, p.Gender)
	str(FieldNationality, &c.Nationality, p.Nationality)
	str(FieldSecondNationality, &c.SecondNationality, p.SecondNationality)
	str(FieldMaritalStatus, &c.MaritalStatus, p.MaritalStatus)
	str(FieldCurrentLocation, &c.CurrentLocation, p.CurrentLocation)
	str(FieldPrimaryPosition, &c.PrimaryPosition, p.PrimaryPosition)
	str(FieldPositionCategory, &c.PositionCategory, p.PositionCategory)
	list(FieldYachtTypes, &c.PreferredYachtTypes, p.PreferredYachtTypes)
	// Ranges are filled as a unit so a local bound is never paired with a
	// remote one.
	if c.PreferredYachtSizeMin == nil && c.PreferredYachtSizeMax == nil {
		integer(FieldYachtSize+"_min", &c.PreferredYachtSizeMin, p.PreferredYachtSizeMin)
		integer(FieldYachtSize+"_max", &c.PreferredYachtSizeMax, p.PreferredYachtSizeMax)
	}
	list(FieldContractTypes, &c.PreferredContractTypes, p.PreferredContractTypes)
	list(FieldRegions, &c.PreferredRegions, p.PreferredRegions)
	if c.DesiredSalaryMin == nil && c.DesiredSalaryMax == nil &&
		(c.SalaryCurrency == nil || strings.TrimSpace(*c.SalaryCurrency) == "") {
		integer(FieldDesiredSalary+"_min", &c.DesiredSalaryMin, p.DesiredSalaryMin)
		integer(FieldDesiredSalary+"_max", &c.DesiredSalaryMax, p.DesiredSalaryMax)
		str("salary_currency", &c.SalaryCurrency, p.SalaryCurrency)
	}
	boolean(FieldHasSTCW, &c.HasSTCW, p.HasSTCW)
	boolean(FieldHasENG1, &c.HasENG1, p.HasENG1)
	str(FieldHighestLicense, &c.HighestLicense, p.HighestLicense)
	str(FieldSecondLicense, &c.SecondLicense, p.SecondLicense)
	boolean(FieldHasB1B2, &c.HasB1B2, p.HasB1B2)
	boolean(FieldHasSchengen, &c.HasSchengen, p.HasSchengen)
	boolean(FieldIsSmoker, &c.IsSmoker, p.IsSmoker)
	boolean(FieldHasVisibleTattoos, &c.HasVisibleTattoos, p.HasVisibleTattoos)
	boolean(FieldIsCouple, &c.IsCouple, p.IsCouple)
	str(FieldPartnerName, &c.PartnerName, p.PartnerName)
	str(FieldPartnerPosition, &c.PartnerPosition, p.PartnerPosition)
	str(FieldAvailabilityStatus, &c.AvailabilityStatus, p.AvailabilityStatus)
	date(FieldAvailableFrom, &c.AvailableFrom, p.AvailableFrom)

	return filled
}

// CandidateRepository is the internal store for candidates.
type CandidateRepository interface {
	GetByID(ctx context.Context, id string) (*Candidate, error)
	GetByUserID(ctx context.Context, userID string) (*Candidate, error)
	GetByEmail(ctx context.Context, email string) (*Candidate, error)
	// SetExternalRef stores the External System id and the sync timestamp.
	SetExternalRef(ctx context.Context, id, externalRef string, syncedAt time.Time) error
	TouchSynced(ctx context.Context, id string, syncedAt time.Time) error
	UpdateAvailability(ctx context.Context, id string, status *string, availableFrom *time.Time) error
	// SaveHydrated persists a candidate after hydration merged remote data into it.
	SaveHydrated(ctx context.Context, c *Candidate) error
	SetPhotoURL(ctx context.Context, id, url string) error
}

// CandidateUsecase covers the candidate-facing actions that trigger a background sync.
type CandidateUsecase interface {
	GetProfile(ctx context.Context, userID string) (*Candidate, error)
	UpdateAvailability(ctx context.Context, userID string, req AvailabilityUpdate) (*Candidate, error)
}

// AvailabilityUpdate is the candidate-facing availability change request.
type AvailabilityUpdate struct {
	Status        *string    `json:"status" validate:"omitempty,oneof=available employed unavailable"`
	AvailableFrom *time.Time `json:"available_from"`
}
