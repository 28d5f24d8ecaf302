package docclass

import (
	"path/filepath"
	"regexp"
	"strings"

	"crew-recruitment-backend/internal/domain"
)

// typePatterns binds a document type to the filename regexes that identify it.
type typePatterns struct {
	docType  string
	patterns []*regexp.Regexp
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

var (
	cvPatterns = typePatterns{domain.DocumentTypeCV, compile(
		`\bcv\b`,
		`\bc v\b`,
		`\br[eé]sum[eé]`,
		`\bcurriculum\b`,
		`\bcover letter\b`,
	)}
	medicalPatterns = typePatterns{domain.DocumentTypeMedical, compile(
		`\beng ?1\b`,
		`\bmedical\b`,
		`\bml ?5\b`,
		`\bpeme\b`,
		`\bhealth cert`,
		`\bvaccin`,
		`\bcovid`,
	)}
	passportPatterns = typePatterns{domain.DocumentTypePassport, compile(
		`\bpassport\b`,
		`\bid card\b`,
		`\bidentity card\b`,
		`\bdischarge book\b`,
		`\bseam[ae]n ?s? (discharge )?book\b`,
		`\bsdb\b`,
	)}
	visaPatterns = typePatterns{domain.DocumentTypeVisa, compile(
		`\bvisa\b`,
		`\bb1 ?b2\b`,
		`\bb1\b`,
		`\bc1 ?d\b`,
		`\bschengen\b`,
		`\besta\b`,
	)}
	certificationPatterns = typePatterns{domain.DocumentTypeCertification, compile(
		`\bstcw\b`,
		`\bcert(ificate|ification)?s?\b`,
		`\bcoc\b`,
		`\bcec\b`,
		`\bpdsd\b`,
		`\bpssr\b`,
		`\bpst\b`,
		`\bpscrb\b`,
		`\bfirst aid\b`,
		`\bfire ?fighting\b`,
		`\byacht ?master\b`,
		`\bpadi\b`,
		`\bdive ?master\b`,
		`\blicen[cs]e\b`,
		`\bgmdss\b`,
		`\bsrc\b`,
		`\bpower ?boat\b`,
		`\baec\b`,
		`\bsso\b`,
		`\bpwc\b`,
		`\bfood (safety|hygiene)\b`,
		`\bships? cook\b`,
		`\bdiploma\b`,
	)}
	referencePatterns = typePatterns{domain.DocumentTypeReference, compile(
		`\breferences?\b`,
		`\brecommendation\b`,
		`\btestimonials?\b`,
		`\bletter of ref`,
		`\bref letter\b`,
	)}
	contractPatterns = typePatterns{domain.DocumentTypeContract, compile(
		`\bcontract\b`,
		`\bseafarer employment\b`,
		`\bsea agreement\b`,
		`\bemployment agreement\b`,
		`\boffer letter\b`,
	)}
)

// filenameOrder is the fixed priority of the filename-pattern stage.
var filenameOrder = []typePatterns{
	cvPatterns,
	medicalPatterns,
	passportPatterns,
	visaPatterns,
	certificationPatterns,
	referencePatterns,
	contractPatterns,
}

// scanOrder is checked for images that look like photographed documents.
var scanOrder = []typePatterns{
	medicalPatterns,
	certificationPatterns,
	passportPatterns,
	visaPatterns,
}

type exclusionRule struct {
	reason  string
	pattern *regexp.Regexp
}

// Exclusion reasons.
const (
	ReasonVerbalReference = "verbal_reference"
	ReasonRebuiltCV       = "rebuilt_cv"
	ReasonAgencyCV        = "agency_cv"
)

// exclusionRules match against the raw lower-cased name, so separators and
// extensions cannot hide them.
var exclusionRules = []exclusionRule{
	{ReasonVerbalReference, regexp.MustCompile(`verbal`)},
	{ReasonRebuiltCV, regexp.MustCompile(`re-?built|rebuild`)},
	{ReasonAgencyCV, regexp.MustCompile(`rebrand|agency[ _-]?(cv|profile|format)|(branded|formatted)[ _-]?cv`)},
}

// Avatar selection patterns. These differ from the document patterns: they
// decide whether an image is usable as a profile picture.
var (
	nonAvatarPatterns = compile(
		`tattoo`,
		`\bscan(ned)?\b`,
		`\bpassport\b`,
		`\bcert`,
		`\bstcw\b`,
		`\beng ?1\b`,
		`\bvisa\b`,
		`\blicen[cs]e\b`,
		`\bdoc(ument)?s?\b`,
		`\bid\b`,
		`\bscreenshot\b`,
		`\bscreen shot\b`,
		`\bmenu\b`,
		`\bfood\b`,
		`\bdish(es)?\b`,
		`\bcv\b`,
		`\bresume\b`,
		`\breference\b`,
	)
	portraitPatterns = compile(
		`\bportrait\b`,
		`\bhead ?shot\b`,
		`\bprofile\b`,
		`\bavatar\b`,
		`\bselfie\b`,
		`\bface\b`,
		`\bheadshot\b`,
	)
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".heic": true,
	".heif": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

var separatorRe = regexp.MustCompile(`[\s_\-.()\[\]+]+`)

// IsImage reports whether the file name has a known image extension.
func IsImage(fileName string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(strings.TrimSpace(fileName)))]
}

// normalizeName lower-cases the base name, drops the extension and turns
// separators into single spaces so word boundaries work on "Verbal_Ref.pdf".
func normalizeName(fileName string) string {
	base := strings.ToLower(filepath.Base(strings.TrimSpace(fileName)))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSpace(separatorRe.ReplaceAllString(base, " "))
}

func matchFirst(name string, patterns []*regexp.Regexp) (string, bool) {
	for _, p := range patterns {
		if p.MatchString(name) {
			return p.String(), true
		}
	}
	return "", false
}
