package fieldmap

import (
	"strconv"
	"strings"
	"time"

	"crew-recruitment-backend/internal/domain"
)

// ExternalDateLayout is the timestamp layout the External System expects.
const ExternalDateLayout = "2006-01-02T15:04:05.000Z"

var dateLayouts = []string{
	ExternalDateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// Mapper translates between internal candidate/job records and the External
// System shape using a Dictionary. It holds no mutable state.
type Mapper struct {
	dict *Dictionary
}

func NewMapper(dict *Dictionary) *Mapper {
	return &Mapper{dict: dict}
}

func (m *Mapper) Dictionary() *Dictionary {
	return m.dict
}

// ToExternal builds the outbound payload. When fields is non-empty only those
// internal fields are mapped. Nil local values are omitted, never cleared.
func (m *Mapper) ToExternal(c *domain.Candidate, fields ...string) domain.ExternalPayload {
	want := fieldFilter(fields)
	var p domain.ExternalPayload
	b := &p.Basic

	if want(domain.FieldFirstName) {
		b.FirstName = clean(c.FirstName)
	}
	if want(domain.FieldLastName) {
		b.LastName = clean(c.LastName)
	}
	if want(domain.FieldEmail) && strings.TrimSpace(c.Email) != "" {
		email := strings.TrimSpace(c.Email)
		b.Email = &email
	}
	if want(domain.FieldPhone) {
		b.Phone = clean(c.Phone)
	}
	if want(domain.FieldDateOfBirth) && c.DateOfBirth != nil {
		dob := c.DateOfBirth.UTC().Format(ExternalDateLayout)
		b.DateOfBirth = &dob
	}
	if want(domain.FieldGender) && c.Gender != nil {
		switch g := strings.ToUpper(strings.TrimSpace(*c.Gender)); g {
		case "MALE", "FEMALE":
			b.Gender = &g
		}
	}
	if want(domain.FieldNationality) && c.Nationality != nil {
		if code, ok := m.dict.CountryCode(*c.Nationality); ok {
			b.Nationality = &code
		}
	}
	if want(domain.FieldCurrentLocation) {
		b.CurrentLocation = clean(c.CurrentLocation)
	}
	if want(domain.FieldPrimaryPosition) && clean(c.PrimaryPosition) != nil {
		pos := StandardizePosition(strings.TrimSpace(*c.PrimaryPosition))
		title := pos.StandardName
		b.JobTitle = &title
		if code, ok := m.dict.PositionCode(pos.StandardName); ok {
			p.PositionCode = code
		}
	}

	if want(domain.FieldMaritalStatus) {
		m.addCode(&p, CFMaritalStatus, c.MaritalStatus)
	}
	if want(domain.FieldYachtTypes) {
		m.addCodes(&p, CFYachtType, c.PreferredYachtTypes)
	}
	if want(domain.FieldYachtSize) {
		m.addScalar(&p, CFYachtSize, FormatYachtSize(c.PreferredYachtSizeMin, c.PreferredYachtSizeMax))
	}
	if want(domain.FieldContractTypes) {
		m.addCodes(&p, CFContractType, c.PreferredContractTypes)
	}
	if want(domain.FieldRegions) {
		m.addScalar(&p, CFPreferredRegions, strings.Join(c.PreferredRegions, ", "))
	}
	if want(domain.FieldDesiredSalary) {
		m.addScalar(&p, CFDesiredSalary, FormatSalary(c.DesiredSalaryMin, c.DesiredSalaryMax, c.SalaryCurrency))
	}
	if want(domain.FieldHighestLicense) && c.HighestLicense != nil {
		license := NormalizeLicense(*c.HighestLicense)
		m.addCode(&p, CFHighestLicense, &license)
	}
	if want(domain.FieldSecondLicense) && c.SecondLicense != nil {
		license := NormalizeLicense(*c.SecondLicense)
		m.addCode(&p, CFSecondLicense, &license)
	}
	if want(domain.FieldSecondNationality) && c.SecondNationality != nil {
		if code, ok := m.dict.CountryCode(*c.SecondNationality); ok {
			m.addScalar(&p, CFSecondNationality, code)
		}
	}

	bools := []struct {
		field string
		name  FieldName
		value *bool
	}{
		{domain.FieldHasSTCW, CFSTCW, c.HasSTCW},
		{domain.FieldHasENG1, CFENG1, c.HasENG1},
		{domain.FieldHasB1B2, CFB1B2, c.HasB1B2},
		{domain.FieldHasSchengen, CFSchengen, c.HasSchengen},
		{domain.FieldIsSmoker, CFSmoker, c.IsSmoker},
		{domain.FieldHasVisibleTattoos, CFVisibleTattoos, c.HasVisibleTattoos},
		{domain.FieldIsCouple, CFCouple, c.IsCouple},
	}
	for _, f := range bools {
		if want(f.field) && f.value != nil {
			v := yesNo(*f.value)
			m.addCode(&p, f.name, &v)
		}
	}

	if want(domain.FieldPartnerName) && c.PartnerName != nil {
		m.addScalar(&p, CFPartnerName, *c.PartnerName)
	}
	if want(domain.FieldPartnerPosition) && c.PartnerPosition != nil {
		m.addScalar(&p, CFPartnerPosition, *c.PartnerPosition)
	}
	if want(domain.FieldAvailabilityStatus) {
		m.addCode(&p, CFAvailabilityStatus, c.AvailabilityStatus)
	}
	if want(domain.FieldAvailableFrom) && c.AvailableFrom != nil {
		p.Custom = append(p.Custom, m.dateField(CFStartDate, *c.AvailableFrom))
	}

	return p
}

// AvailabilityFields returns the custom fields for an availability push, or
// nil when there is nothing to push.
func (m *Mapper) AvailabilityFields(availableFrom *time.Time) []domain.CustomFieldValue {
	if availableFrom == nil {
		return nil
	}
	return []domain.CustomFieldValue{m.dateField(CFStartDate, *availableFrom)}
}

// ToInternal maps an External System record onto a candidate patch. Unknown
// keys and codes are dropped.
func (m *Mapper) ToInternal(rec *domain.ExternalCandidate, custom []domain.CustomFieldValue) domain.CandidatePatch {
	var p domain.CandidatePatch

	if rec != nil {
		p.FirstName = clean(rec.FirstName)
		p.LastName = clean(rec.LastName)
		p.Phone = clean(rec.Phone)
		p.CurrentLocation = clean(rec.CurrentLocation)
		if rec.DateOfBirth != nil {
			p.DateOfBirth = parseDate(*rec.DateOfBirth)
		}
		if rec.Gender != nil {
			switch g := strings.ToLower(strings.TrimSpace(*rec.Gender)); g {
			case "male", "female":
				p.Gender = &g
			}
		}
		if rec.Nationality != nil {
			p.Nationality = m.nationality(*rec.Nationality)
		}
		if title := clean(rec.JobTitle); title != nil {
			pos := StandardizePosition(*title)
			p.PrimaryPosition = &pos.StandardName
			p.PositionCategory = &pos.Category
		}
	}

	for _, cf := range custom {
		spec, ok := m.dict.SpecByKey(cf.Key)
		if !ok {
			continue
		}
		switch spec.Name {
		case CFMaritalStatus:
			p.MaritalStatus = m.firstValue(spec.Name, cf)
		case CFYachtType:
			p.PreferredYachtTypes = m.values(spec.Name, cf)
		case CFContractType:
			p.PreferredContractTypes = m.values(spec.Name, cf)
		case CFYachtSize:
			r := ParseYachtSize(scalar(cf))
			p.PreferredYachtSizeMin, p.PreferredYachtSizeMax = r.Min, r.Max
		case CFDesiredSalary:
			r := ParseSalary(scalar(cf))
			p.DesiredSalaryMin, p.DesiredSalaryMax, p.SalaryCurrency = r.Min, r.Max, r.Currency
		case CFPreferredRegions:
			p.PreferredRegions = splitList(scalar(cf))
		case CFHighestLicense:
			p.HighestLicense = m.firstValue(spec.Name, cf)
		case CFSecondLicense:
			p.SecondLicense = m.firstValue(spec.Name, cf)
		case CFSecondNationality:
			p.SecondNationality = m.nationality(scalar(cf))
		case CFSTCW:
			p.HasSTCW = m.boolValue(spec.Name, cf)
		case CFENG1:
			p.HasENG1 = m.boolValue(spec.Name, cf)
		case CFB1B2:
			p.HasB1B2 = m.boolValue(spec.Name, cf)
		case CFSchengen:
			p.HasSchengen = m.boolValue(spec.Name, cf)
		case CFSmoker:
			p.IsSmoker = m.boolValue(spec.Name, cf)
		case CFVisibleTattoos:
			p.HasVisibleTattoos = m.boolValue(spec.Name, cf)
		case CFCouple:
			p.IsCouple = m.boolValue(spec.Name, cf)
		case CFPartnerName:
			p.PartnerName = clean(cf.Value)
		case CFPartnerPosition:
			p.PartnerPosition = clean(cf.Value)
		case CFAvailabilityStatus:
			p.AvailabilityStatus = m.firstValue(spec.Name, cf)
		case CFStartDate:
			p.AvailableFrom = dateOf(cf)
		}
	}

	return p
}

// JobToInternal maps an External System position and its custom fields.
func (m *Mapper) JobToInternal(pos *domain.ExternalPosition, custom []domain.CustomFieldValue) domain.JobPatch {
	var p domain.JobPatch
	if pos != nil {
		p.Title = clean(pos.JobTitle)
		p.Description = clean(pos.Description)
		if pos.JobStatus != nil {
			status := jobStatus(*pos.JobStatus)
			p.Status = &status
		}
	}

	var program *string
	for _, cf := range custom {
		spec, ok := m.dict.SpecByKey(cf.Key)
		if !ok {
			continue
		}
		switch spec.Name {
		case CFJobYacht:
			p.YachtName = clean(cf.Value)
		case CFJobRequirements:
			p.Requirements = clean(cf.Value)
		case CFJobItinerary:
			p.Itinerary = clean(cf.Value)
		case CFJobProgram:
			program = clean(cf.Value)
		case CFJobHolidayPackage:
			p.HolidayPackage = clean(cf.Value)
		case CFJobSalary:
			r := ParseSalary(scalar(cf))
			p.SalaryMin, p.SalaryMax, p.SalaryCurrency = r.Min, r.Max, r.Currency
		case CFJobContractType:
			p.ContractType = m.firstValue(spec.Name, cf)
		case CFJobStartDate:
			p.StartDate = dateOf(cf)
		}
	}

	// The program has no column of its own and is shown with the itinerary.
	if program != nil {
		if p.Itinerary == nil {
			p.Itinerary = program
		} else {
			joined := *p.Itinerary + "\n" + *program
			p.Itinerary = &joined
		}
	}
	return p
}

func (m *Mapper) addScalar(p *domain.ExternalPayload, name FieldName, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	p.Custom = append(p.Custom, domain.CustomFieldValue{Key: m.dict.Key(name), Value: &value})
}

func (m *Mapper) addCode(p *domain.ExternalPayload, name FieldName, value *string) {
	if value == nil {
		return
	}
	if code, ok := m.dict.Code(name, *value); ok {
		p.Custom = append(p.Custom, domain.CustomFieldValue{Key: m.dict.Key(name), Codes: []int{code}})
	}
}

func (m *Mapper) addCodes(p *domain.ExternalPayload, name FieldName, values []string) {
	var codes []int
	for _, v := range values {
		if code, ok := m.dict.Code(name, v); ok {
			codes = append(codes, code)
		}
	}
	if len(codes) > 0 {
		p.Custom = append(p.Custom, domain.CustomFieldValue{Key: m.dict.Key(name), Codes: codes})
	}
}

func (m *Mapper) dateField(name FieldName, t time.Time) domain.CustomFieldValue {
	d := t.UTC()
	return domain.CustomFieldValue{Key: m.dict.Key(name), Date: &d}
}

func (m *Mapper) values(name FieldName, cf domain.CustomFieldValue) []string {
	var out []string
	for _, code := range codesOf(cf) {
		if v, ok := m.dict.Value(name, code); ok {
			out = append(out, v)
		}
	}
	return out
}

func (m *Mapper) firstValue(name FieldName, cf domain.CustomFieldValue) *string {
	values := m.values(name, cf)
	if len(values) == 0 {
		return nil
	}
	return &values[0]
}

func (m *Mapper) boolValue(name FieldName, cf domain.CustomFieldValue) *bool {
	v := m.firstValue(name, cf)
	if v == nil {
		return nil
	}
	b, ok := parseYesNo(*v)
	if !ok {
		return nil
	}
	return &b
}

func (m *Mapper) nationality(s string) *string {
	code, ok := m.dict.CountryCode(s)
	if !ok {
		return nil
	}
	n, ok := m.dict.Nationality(code)
	if !ok {
		return nil
	}
	return &n
}

func codesOf(cf domain.CustomFieldValue) []int {
	if len(cf.Codes) > 0 {
		return cf.Codes
	}
	if cf.Value == nil {
		return nil
	}
	var codes []int
	for _, part := range strings.Split(*cf.Value, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			codes = append(codes, n)
		}
	}
	return codes
}

func scalar(cf domain.CustomFieldValue) string {
	if cf.Value == nil {
		return ""
	}
	return *cf.Value
}

func dateOf(cf domain.CustomFieldValue) *time.Time {
	if cf.Date != nil {
		d := cf.Date.UTC()
		return &d
	}
	if cf.Value != nil {
		return parseDate(*cf.Value)
	}
	return nil
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func jobStatus(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OPEN", "ACTIVE", "LIVE":
		return "open"
	case "CLOSED", "FILLED", "CANCELLED", "LOST":
		return "closed"
	case "ON_HOLD", "HOLD":
		return "paused"
	}
	return "draft"
}

func clean(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// fieldFilter treats an empty selection as "all fields". Range and currency
// sub-columns select their parent field.
func fieldFilter(fields []string) func(string) bool {
	if len(fields) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		f = strings.TrimSuffix(strings.TrimSuffix(f, "_min"), "_max")
		switch f {
		case "salary_currency":
			f = domain.FieldDesiredSalary
		case domain.FieldPositionCategory:
			f = domain.FieldPrimaryPosition
		}
		set[f] = true
	}
	return func(name string) bool { return set[name] }
}
