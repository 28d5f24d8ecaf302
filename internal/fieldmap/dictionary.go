package fieldmap

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

//go:embed dictionary.yaml
var defaultDictionaryYAML []byte

// FieldName is a semantic External System custom field. The opaque key it
// resolves to lives in the Dictionary, never at call sites.
type FieldName string

// Candidate custom fields.
const (
	CFMaritalStatus      FieldName = "marital_status"
	CFContractType       FieldName = "contract_type"
	CFYachtType          FieldName = "yacht_type"
	CFYachtSize          FieldName = "yacht_size"
	CFDesiredSalary      FieldName = "desired_salary"
	CFPreferredRegions   FieldName = "preferred_regions"
	CFHighestLicense     FieldName = "highest_license"
	CFSecondLicense      FieldName = "second_license"
	CFSecondNationality  FieldName = "second_nationality"
	CFSTCW               FieldName = "stcw"
	CFENG1               FieldName = "eng1"
	CFB1B2               FieldName = "b1b2_visa"
	CFSchengen           FieldName = "schengen_visa"
	CFSmoker             FieldName = "smoker"
	CFVisibleTattoos     FieldName = "visible_tattoos"
	CFCouple             FieldName = "couple"
	CFPartnerName        FieldName = "partner_name"
	CFPartnerPosition    FieldName = "partner_position"
	CFAvailabilityStatus FieldName = "availability_status"
	CFStartDate          FieldName = "start_date"
)

// Job custom fields.
const (
	CFJobYacht          FieldName = "job_yacht"
	CFJobRequirements   FieldName = "job_requirements"
	CFJobStartDate      FieldName = "job_start_date"
	CFJobItinerary      FieldName = "job_itinerary"
	CFJobSalary         FieldName = "job_salary"
	CFJobProgram        FieldName = "job_program"
	CFJobHolidayPackage FieldName = "job_holiday_package"
	CFJobContractType   FieldName = "job_contract_type"
)

// RequiredFields lists every field the mapper resolves. A dictionary missing
// any of them is rejected at load time.
var RequiredFields = []FieldName{
	CFMaritalStatus, CFContractType, CFYachtType, CFYachtSize, CFDesiredSalary,
	CFPreferredRegions, CFHighestLicense, CFSecondLicense, CFSecondNationality,
	CFSTCW, CFENG1, CFB1B2, CFSchengen, CFSmoker, CFVisibleTattoos, CFCouple,
	CFPartnerName, CFPartnerPosition, CFAvailabilityStatus, CFStartDate,
	CFJobYacht, CFJobRequirements, CFJobStartDate, CFJobItinerary, CFJobSalary,
	CFJobProgram, CFJobHolidayPackage, CFJobContractType,
}

// FieldKind is the value shape a custom field holds.
type FieldKind string

const (
	KindScalar FieldKind = "scalar"
	KindCodes  FieldKind = "codes"
	KindDate   FieldKind = "date"
)

// Option is one dropdown entry: internal value <-> External System code.
type Option struct {
	Value string `mapstructure:"value" validate:"required"`
	Code  int    `mapstructure:"code" validate:"gt=0"`
}

// FieldSpec binds a semantic field to its opaque key.
type FieldSpec struct {
	Name    FieldName `mapstructure:"name" validate:"required"`
	Key     string    `mapstructure:"key" validate:"required,len=32,hexadecimal"`
	Kind    FieldKind `mapstructure:"kind" validate:"required,oneof=scalar codes date"`
	Options []Option  `mapstructure:"options" validate:"dive"`
}

// PositionCode is the External System code for a standardized position.
type PositionCode struct {
	Name string `mapstructure:"name" validate:"required"`
	Code int    `mapstructure:"code" validate:"gt=0"`
}

// Country maps a nationality to its ISO 3166-1 alpha-2 code.
type Country struct {
	Nationality string   `mapstructure:"nationality" validate:"required"`
	Code        string   `mapstructure:"code" validate:"required,len=2,uppercase"`
	Aliases     []string `mapstructure:"aliases"`
}

// Dictionary is the closed, versioned translation table for one External
// System tenant.
type Dictionary struct {
	Version   string         `mapstructure:"version" validate:"required"`
	Fields    []FieldSpec    `mapstructure:"fields" validate:"required,dive"`
	Positions []PositionCode `mapstructure:"positions" validate:"dive"`
	Countries []Country      `mapstructure:"countries" validate:"dive"`

	byName      map[FieldName]*FieldSpec
	byKey       map[string]*FieldSpec
	positions   map[string]int
	countries   map[string]*Country
	countryCode map[string]*Country
}

// DefaultDictionary returns the embedded dictionary.
func DefaultDictionary() (*Dictionary, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaultDictionaryYAML)); err != nil {
		return nil, fmt.Errorf("read embedded dictionary: %w", err)
	}
	return decodeDictionary(v)
}

// LoadDictionary reads a dictionary file (yaml, json or toml). An empty path
// falls back to the embedded default.
func LoadDictionary(path string) (*Dictionary, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultDictionary()
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read dictionary %q: %w", path, err)
	}
	return decodeDictionary(v)
}

func decodeDictionary(v *viper.Viper) (*Dictionary, error) {
	var d Dictionary
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &d,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode dictionary: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks structure, completeness and bidirectionality, then builds
// the lookup indexes. It must be called before the dictionary is used.
func (d *Dictionary) Validate() error {
	if err := validator.New().Struct(d); err != nil {
		return fmt.Errorf("invalid dictionary: %w", err)
	}

	d.byName = make(map[FieldName]*FieldSpec, len(d.Fields))
	d.byKey = make(map[string]*FieldSpec, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		f.Key = strings.ToLower(f.Key)
		if _, dup := d.byName[f.Name]; dup {
			return fmt.Errorf("invalid dictionary: field %q declared twice", f.Name)
		}
		if other, dup := d.byKey[f.Key]; dup {
			return fmt.Errorf("invalid dictionary: fields %q and %q share key %s", other.Name, f.Name, f.Key)
		}
		if f.Kind == KindCodes && len(f.Options) == 0 {
			return fmt.Errorf("invalid dictionary: field %q has no options", f.Name)
		}
		if f.Kind != KindCodes && len(f.Options) > 0 {
			return fmt.Errorf("invalid dictionary: %s field %q must not declare options", f.Kind, f.Name)
		}
		values := make(map[string]bool, len(f.Options))
		codes := make(map[int]bool, len(f.Options))
		for _, o := range f.Options {
			v := normalizeText(o.Value)
			if values[v] {
				return fmt.Errorf("invalid dictionary: field %q repeats value %q", f.Name, o.Value)
			}
			if codes[o.Code] {
				return fmt.Errorf("invalid dictionary: field %q repeats code %d", f.Name, o.Code)
			}
			values[v] = true
			codes[o.Code] = true
		}
		d.byName[f.Name] = f
		d.byKey[f.Key] = f
	}

	for _, name := range RequiredFields {
		if _, ok := d.byName[name]; !ok {
			return fmt.Errorf("invalid dictionary: missing field %q", name)
		}
	}

	d.positions = make(map[string]int, len(d.Positions))
	seenCodes := make(map[int]string, len(d.Positions))
	for _, p := range d.Positions {
		name := normalizeText(p.Name)
		if _, dup := d.positions[name]; dup {
			return fmt.Errorf("invalid dictionary: position %q declared twice", p.Name)
		}
		if other, dup := seenCodes[p.Code]; dup {
			return fmt.Errorf("invalid dictionary: positions %q and %q share code %d", other, p.Name, p.Code)
		}
		d.positions[name] = p.Code
		seenCodes[p.Code] = p.Name
	}

	d.countries = make(map[string]*Country)
	d.countryCode = make(map[string]*Country, len(d.Countries))
	for i := range d.Countries {
		c := &d.Countries[i]
		if _, dup := d.countryCode[c.Code]; dup {
			return fmt.Errorf("invalid dictionary: country code %s declared twice", c.Code)
		}
		d.countryCode[c.Code] = c
		for _, name := range append([]string{c.Nationality}, c.Aliases...) {
			n := normalizeText(name)
			if other, dup := d.countries[n]; dup && other != c {
				return fmt.Errorf("invalid dictionary: nationality %q maps to %s and %s", name, other.Code, c.Code)
			}
			d.countries[n] = c
		}
	}

	return nil
}

// Spec returns the field spec for name.
func (d *Dictionary) Spec(name FieldName) (*FieldSpec, bool) {
	f, ok := d.byName[name]
	return f, ok
}

// SpecByKey resolves an opaque External System key.
func (d *Dictionary) SpecByKey(key string) (*FieldSpec, bool) {
	f, ok := d.byKey[strings.ToLower(strings.TrimSpace(key))]
	return f, ok
}

// Key returns the opaque key for name.
func (d *Dictionary) Key(name FieldName) string {
	if f, ok := d.byName[name]; ok {
		return f.Key
	}
	return ""
}

// Code translates an internal dropdown value to its External System code.
func (d *Dictionary) Code(name FieldName, value string) (int, bool) {
	f, ok := d.byName[name]
	if !ok {
		return 0, false
	}
	v := normalizeText(value)
	for _, o := range f.Options {
		if normalizeText(o.Value) == v {
			return o.Code, true
		}
	}
	return 0, false
}

// Value translates an External System code back to the internal value.
func (d *Dictionary) Value(name FieldName, code int) (string, bool) {
	f, ok := d.byName[name]
	if !ok {
		return "", false
	}
	for _, o := range f.Options {
		if o.Code == code {
			return o.Value, true
		}
	}
	return "", false
}

// PositionCode returns the code for a standardized position name.
func (d *Dictionary) PositionCode(standardName string) (int, bool) {
	code, ok := d.positions[normalizeText(standardName)]
	return code, ok
}

// CountryCode resolves a nationality, alias or ISO code to an ISO code.
func (d *Dictionary) CountryCode(nationality string) (string, bool) {
	s := strings.TrimSpace(nationality)
	if c, ok := d.countryCode[strings.ToUpper(s)]; ok && len(s) == 2 {
		return c.Code, true
	}
	if c, ok := d.countries[normalizeText(s)]; ok {
		return c.Code, true
	}
	return "", false
}

// Nationality resolves an ISO code to the canonical nationality.
func (d *Dictionary) Nationality(code string) (string, bool) {
	c, ok := d.countryCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return "", false
	}
	return c.Nationality, true
}
