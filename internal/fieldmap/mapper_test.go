package fieldmap_test

import (
	"testing"
	"time"

	"crew-recruitment-backend/internal/domain"
	"crew-recruitment-backend/internal/fieldmap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func newMapper(t *testing.T) *fieldmap.Mapper {
	t.Helper()
	dict, err := fieldmap.DefaultDictionary()
	require.NoError(t, err)
	return fieldmap.NewMapper(dict)
}

func fullCandidate() *domain.Candidate {
	dob := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)
	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Candidate{
		ID:                     "c-1",
		Email:                  "jane@example.com",
		FirstName:              strPtr("Jane"),
		LastName:               strPtr("Doe"),
		Phone:                  strPtr("+33 6 00 00 00 00"),
		DateOfBirth:            &dob,
		Gender:                 strPtr("female"),
		Nationality:            strPtr("British"),
		SecondNationality:      strPtr("French"),
		MaritalStatus:          strPtr("married"),
		CurrentLocation:        strPtr("Antibes"),
		PrimaryPosition:        strPtr("Chief Stew"),
		PreferredYachtTypes:    []string{"motor", "sail"},
		PreferredYachtSizeMin:  intPtr(40),
		PreferredYachtSizeMax:  intPtr(60),
		PreferredContractTypes: []string{"permanent", "rotational"},
		PreferredRegions:       []string{"Mediterranean", "Caribbean"},
		DesiredSalaryMin:       intPtr(5000),
		DesiredSalaryMax:       intPtr(7000),
		SalaryCurrency:         strPtr("EUR"),
		HasSTCW:                boolPtr(true),
		HasENG1:                boolPtr(true),
		HighestLicense:         strPtr("Master 3000GT"),
		HasB1B2:                boolPtr(false),
		HasSchengen:            boolPtr(true),
		IsSmoker:               boolPtr(false),
		HasVisibleTattoos:      boolPtr(false),
		IsCouple:               boolPtr(true),
		PartnerName:            strPtr("John Doe"),
		PartnerPosition:        strPtr("Bosun"),
		AvailabilityStatus:     strPtr("available"),
		AvailableFrom:          &from,
	}
}

func TestToExternal(t *testing.T) {
	m := newMapper(t)
	dict := m.Dictionary()

	t.Run("Should map basic fields", func(t *testing.T) {
		p := m.ToExternal(fullCandidate())
		require.NotNil(t, p.Basic.Email)
		assert.Equal(t, "jane@example.com", *p.Basic.Email)
		assert.Equal(t, "FEMALE", *p.Basic.Gender)
		assert.Equal(t, "GB", *p.Basic.Nationality)
		assert.Equal(t, "1990-04-12T00:00:00.000Z", *p.Basic.DateOfBirth)
		assert.Equal(t, "Chief Stewardess", *p.Basic.JobTitle)

		code, ok := dict.PositionCode("Chief Stewardess")
		require.True(t, ok)
		assert.Equal(t, code, p.PositionCode)
	})

	t.Run("Should translate enumerated fields to codes", func(t *testing.T) {
		p := m.ToExternal(fullCandidate())
		byKey := map[string]domain.CustomFieldValue{}
		for _, cf := range p.Custom {
			byKey[cf.Key] = cf
		}

		married, _ := dict.Code(fieldmap.CFMaritalStatus, "married")
		assert.Equal(t, []int{married}, byKey[dict.Key(fieldmap.CFMaritalStatus)].Codes)

		motor, _ := dict.Code(fieldmap.CFYachtType, "motor")
		sail, _ := dict.Code(fieldmap.CFYachtType, "sail")
		assert.Equal(t, []int{motor, sail}, byKey[dict.Key(fieldmap.CFYachtType)].Codes)

		salary := byKey[dict.Key(fieldmap.CFDesiredSalary)]
		require.NotNil(t, salary.Value)
		assert.Equal(t, "5000-7000 EUR", *salary.Value)

		start := byKey[dict.Key(fieldmap.CFStartDate)]
		require.NotNil(t, start.Date)
	})

	t.Run("Should omit nil fields instead of clearing them", func(t *testing.T) {
		p := m.ToExternal(&domain.Candidate{ID: "c-2", Email: "a@b.c"})
		assert.Nil(t, p.Basic.FirstName)
		assert.Nil(t, p.Basic.Nationality)
		assert.Empty(t, p.Custom)
		assert.Zero(t, p.PositionCode)
	})

	t.Run("Should honour the field filter", func(t *testing.T) {
		p := m.ToExternal(fullCandidate(), domain.FieldPhone, "desired_salary_min")
		assert.NotNil(t, p.Basic.Phone)
		assert.Nil(t, p.Basic.FirstName)
		assert.Nil(t, p.Basic.Email)
		require.Len(t, p.Custom, 1)
		assert.Equal(t, dict.Key(fieldmap.CFDesiredSalary), p.Custom[0].Key)
	})

	t.Run("Should skip values missing from the dictionary", func(t *testing.T) {
		c := &domain.Candidate{Email: "a@b.c", MaritalStatus: strPtr("complicated"), Nationality: strPtr("Atlantean")}
		p := m.ToExternal(c)
		assert.Nil(t, p.Basic.Nationality)
		assert.Empty(t, p.Custom)
	})
}

func TestRoundTrip(t *testing.T) {
	m := newMapper(t)
	c := fullCandidate()

	p := m.ToExternal(c)
	patch := m.ToInternal(&p.Basic, p.Custom)

	assert.Equal(t, c.FirstName, patch.FirstName)
	assert.Equal(t, c.LastName, patch.LastName)
	assert.Equal(t, c.Gender, patch.Gender)
	assert.Equal(t, c.Nationality, patch.Nationality)
	assert.Equal(t, c.SecondNationality, patch.SecondNationality)
	assert.Equal(t, c.MaritalStatus, patch.MaritalStatus)
	assert.Equal(t, c.PreferredYachtTypes, patch.PreferredYachtTypes)
	assert.Equal(t, c.PreferredContractTypes, patch.PreferredContractTypes)
	assert.Equal(t, c.PreferredRegions, patch.PreferredRegions)
	assert.Equal(t, c.PreferredYachtSizeMin, patch.PreferredYachtSizeMin)
	assert.Equal(t, c.PreferredYachtSizeMax, patch.PreferredYachtSizeMax)
	assert.Equal(t, c.DesiredSalaryMin, patch.DesiredSalaryMin)
	assert.Equal(t, c.DesiredSalaryMax, patch.DesiredSalaryMax)
	assert.Equal(t, c.SalaryCurrency, patch.SalaryCurrency)
	assert.Equal(t, c.HasSTCW, patch.HasSTCW)
	assert.Equal(t, c.HasB1B2, patch.HasB1B2)
	assert.Equal(t, c.IsCouple, patch.IsCouple)
	assert.Equal(t, c.HighestLicense, patch.HighestLicense)
	assert.Equal(t, c.PartnerName, patch.PartnerName)
	assert.Equal(t, c.AvailabilityStatus, patch.AvailabilityStatus)
	assert.True(t, c.DateOfBirth.Equal(*patch.DateOfBirth))
	assert.True(t, c.AvailableFrom.Equal(*patch.AvailableFrom))
	assert.Equal(t, "Chief Stewardess", *patch.PrimaryPosition)
	assert.Equal(t, fieldmap.CategoryInterior, *patch.PositionCategory)
}

func TestToInternal(t *testing.T) {
	m := newMapper(t)
	dict := m.Dictionary()

	t.Run("Should drop unknown codes and keys", func(t *testing.T) {
		patch := m.ToInternal(nil, []domain.CustomFieldValue{
			{Key: dict.Key(fieldmap.CFMaritalStatus), Codes: []int{999}},
			{Key: dict.Key(fieldmap.CFYachtType), Codes: []int{998, 997}},
			{Key: "00000000000000000000000000000000", Value: strPtr("ignored")},
		})
		assert.Nil(t, patch.MaritalStatus)
		assert.Empty(t, patch.PreferredYachtTypes)
	})

	t.Run("Should read codes delivered as a string", func(t *testing.T) {
		sail, _ := dict.Code(fieldmap.CFYachtType, "sail")
		patch := m.ToInternal(nil, []domain.CustomFieldValue{
			{Key: dict.Key(fieldmap.CFYachtType), Value: strPtr("2")},
		})
		require.Len(t, patch.PreferredYachtTypes, 1)
		v, _ := dict.Value(fieldmap.CFYachtType, sail)
		assert.Equal(t, v, patch.PreferredYachtTypes[0])
	})

	t.Run("Should leave unparseable values nil", func(t *testing.T) {
		patch := m.ToInternal(&domain.ExternalCandidate{
			DateOfBirth: strPtr("sometime in the nineties"),
			Gender:      strPtr("unknown"),
			Nationality: strPtr("ZZ"),
			FirstName:   strPtr("   "),
		}, []domain.CustomFieldValue{
			{Key: dict.Key(fieldmap.CFDesiredSalary), Value: strPtr("negotiable")},
		})
		assert.Nil(t, patch.DateOfBirth)
		assert.Nil(t, patch.Gender)
		assert.Nil(t, patch.Nationality)
		assert.Nil(t, patch.FirstName)
		assert.Nil(t, patch.DesiredSalaryMin)
		assert.Nil(t, patch.SalaryCurrency)
	})

	t.Run("Should pass unmatched job titles through", func(t *testing.T) {
		patch := m.ToInternal(&domain.ExternalCandidate{JobTitle: strPtr("Helicopter Pilot")}, nil)
		assert.Equal(t, "Helicopter Pilot", *patch.PrimaryPosition)
		assert.Equal(t, fieldmap.CategoryOther, *patch.PositionCategory)
	})
}

func TestAvailabilityFields(t *testing.T) {
	m := newMapper(t)
	assert.Nil(t, m.AvailabilityFields(nil))

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	fields := m.AvailabilityFields(&from)
	require.Len(t, fields, 1)
	assert.Equal(t, m.Dictionary().Key(fieldmap.CFStartDate), fields[0].Key)
	assert.True(t, from.Equal(*fields[0].Date))
}

func TestJobToInternal(t *testing.T) {
	m := newMapper(t)
	dict := m.Dictionary()
	rotational, _ := dict.Code(fieldmap.CFJobContractType, "rotational")
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	patch := m.JobToInternal(&domain.ExternalPosition{
		ID:        42,
		JobTitle:  strPtr("Chief Officer 60m M/Y"),
		JobStatus: strPtr("OPEN"),
	}, []domain.CustomFieldValue{
		{Key: "f8b2c1ddc995fb699973598e449193c3", Value: strPtr("M/Y Serenity")},
		{Key: "035ca080627c6bac4e59e6fc6750a5b6", Value: strPtr("€8k-9k")},
		{Key: "c980a4f92992081ead936fb8a358fb79", Codes: []int{rotational}},
		{Key: "9a214be2a25d61d1add26dca93aef45a", Date: &start},
		{Key: "b8a75c8b68fb5c85fb083aac4bbbed94", Value: strPtr("Med summer")},
		{Key: "24a44070b5d77ce92fb018745ddbe374", Value: strPtr("Private only")},
	})

	assert.Equal(t, "Chief Officer 60m M/Y", *patch.Title)
	assert.Equal(t, "open", *patch.Status)
	assert.Equal(t, "M/Y Serenity", *patch.YachtName)
	assert.Equal(t, 8000, *patch.SalaryMin)
	assert.Equal(t, 9000, *patch.SalaryMax)
	assert.Equal(t, "EUR", *patch.SalaryCurrency)
	assert.Equal(t, "rotational", *patch.ContractType)
	assert.True(t, start.Equal(*patch.StartDate))
	assert.Equal(t, "Med summer\nPrivate only", *patch.Itinerary)
}
