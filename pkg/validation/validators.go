package validation

import (
	"reflect"
	"strings"
	"unicode"

	"crew-recruitment-backend/internal/domain"

	"github.com/go-playground/validator/v10"
)

// candidateFields are the names accepted as a changed-field selection.
// Range and currency sub-columns select their parent field.
var candidateFields = map[string]bool{
	domain.FieldFirstName: true, domain.FieldLastName: true, domain.FieldEmail: true,
	domain.FieldPhone: true, domain.FieldDateOfBirth: true, domain.FieldGender: true,
	domain.FieldNationality: true, domain.FieldSecondNationality: true, domain.FieldMaritalStatus: true,
	domain.FieldCurrentLocation: true, domain.FieldPrimaryPosition: true, domain.FieldPositionCategory: true,
	domain.FieldYachtTypes: true, domain.FieldYachtSize: true, domain.FieldContractTypes: true,
	domain.FieldRegions: true, domain.FieldDesiredSalary: true, domain.FieldHasSTCW: true,
	domain.FieldHasENG1: true, domain.FieldHighestLicense: true, domain.FieldSecondLicense: true,
	domain.FieldHasB1B2: true, domain.FieldHasSchengen: true, domain.FieldIsSmoker: true,
	domain.FieldHasVisibleTattoos: true, domain.FieldIsCouple: true, domain.FieldPartnerName: true,
	domain.FieldPartnerPosition: true, domain.FieldAvailabilityStatus: true, domain.FieldAvailableFrom: true,
	"salary_currency": true,
}

// RegisterValidators registers custom validators and reports fields by
// their JSON names.
func RegisterValidators(v *validator.Validate) {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("no_emoji", NoEmoji)
	_ = v.RegisterValidation("candidate_field", CandidateField)
}

// IsCandidateField reports whether name selects a syncable candidate field.
func IsCandidateField(name string) bool {
	name = strings.TrimSpace(name)
	if candidateFields[name] {
		return true
	}
	base := strings.TrimSuffix(strings.TrimSuffix(name, "_min"), "_max")
	return base != name && candidateFields[base]
}

// CandidateField validates a changed-field name.
func CandidateField(fl validator.FieldLevel) bool {
	return IsCandidateField(fl.Field().String())
}

// NoEmoji validates that a string does not contain emoji characters
func NoEmoji(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		// Supplementary planes are mostly emoji and pictographs
		if r > 0x1F000 {
			return false
		}
		if unicode.In(r, unicode.So, unicode.Sk) {
			return false
		}
	}
	return true
}
