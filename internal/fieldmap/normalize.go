package fieldmap

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	listSplitRe  = regexp.MustCompile(`\s*(?:,|;|\||/|\band\b|&)\s*`)
)

// normalizeText lowercases, strips diacritics and collapses whitespace.
func normalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	s = stripDiacritics(s)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// stripDiacritics decomposes to NFD and drops combining marks.
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// splitList splits free-text lists such as "Med, Caribbean & Bahamas".
func splitList(s string) []string {
	var out []string
	for _, part := range listSplitRe.Split(strings.TrimSpace(s), -1) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var licenseAliases = []struct {
	pattern *regexp.Regexp
	value   string
}{
	{regexp.MustCompile(`master.*unlimited|unlimited.*master`), "Master Unlimited"},
	{regexp.MustCompile(`master.*3000|3000.*master`), "Master 3000GT"},
	{regexp.MustCompile(`master.*500|500.*master`), "Master 500GT"},
	{regexp.MustCompile(`master.*200|200.*master`), "Master 200GT"},
	{regexp.MustCompile(`(chief mate|\bc/?o\b).*unlimited`), "Chief Mate Unlimited"},
	{regexp.MustCompile(`(chief mate|\bc/?o\b).*3000`), "Chief Mate 3000GT"},
	{regexp.MustCompile(`oow.*unlimited|officer of the watch.*unlimited`), "OOW Unlimited"},
	{regexp.MustCompile(`oow|officer of the watch`), "OOW 3000GT"},
	{regexp.MustCompile(`y\s*m.*ocean|yachtmaster ocean`), "Yachtmaster Ocean"},
	{regexp.MustCompile(`y\s*m.*offshore|yachtmaster offshore|yachtmaster$`), "Yachtmaster Offshore"},
	{regexp.MustCompile(`y\s*m.*coastal|yachtmaster coastal`), "Yachtmaster Coastal"},
	{regexp.MustCompile(`chief eng.*unlimited`), "Chief Engineer Unlimited"},
	{regexp.MustCompile(`chief eng.*3000`), "Chief Engineer 3000kW"},
	{regexp.MustCompile(`(second|2nd) eng.*unlimited`), "Second Engineer Unlimited"},
	{regexp.MustCompile(`(second|2nd) eng.*3000`), "Second Engineer 3000kW"},
	{regexp.MustCompile(`^y\s*1$|\by1\b`), "Y1"},
	{regexp.MustCompile(`^y\s*2$|\by2\b`), "Y2"},
	{regexp.MustCompile(`^y\s*3$|\by3\b`), "Y3"},
	{regexp.MustCompile(`^y\s*4$|\by4\b`), "Y4"},
	{regexp.MustCompile(`^aec\b|approved engine course`), "AEC"},
	{regexp.MustCompile(`powerboat|pb ?2`), "Powerboat Level 2"},
	{regexp.MustCompile(`^eto\b|electro.?technical`), "ETO"},
}

// NormalizeLicense maps free-text certificate names to the canonical
// dictionary value. Unrecognised input is returned trimmed.
func NormalizeLicense(s string) string {
	n := normalizeText(s)
	if n == "" {
		return ""
	}
	for _, a := range licenseAliases {
		if a.pattern.MatchString(n) {
			return a.value
		}
	}
	return strings.TrimSpace(s)
}

var contractAliases = map[string]string{
	"permanent":  "permanent",
	"perm":       "permanent",
	"full time":  "permanent",
	"rotational": "rotational",
	"rotation":   "rotational",
	"rotating":   "rotational",
	"temporary":  "temporary",
	"temp":       "temporary",
	"relief":     "temporary",
	"freelance":  "temporary",
	"daywork":    "temporary",
	"seasonal":   "seasonal",
	"season":     "seasonal",
}

// NormalizeContractTypes turns "Perm / Rotation" into ["permanent", "rotational"].
func NormalizeContractTypes(s string) []string {
	return normalizeList(s, contractAliases)
}

var yachtTypeAliases = map[string]string{
	"motor":       "motor",
	"motor yacht": "motor",
	"my":          "motor",
	"m/y":         "motor",
	"sail":        "sail",
	"sailing":     "sail",
	"sail yacht":  "sail",
	"sy":          "sail",
	"s/y":         "sail",
	"catamaran":   "catamaran",
	"cat":         "catamaran",
	"explorer":    "explorer",
	"expedition":  "explorer",
}

// NormalizeYachtTypes turns "M/Y, sailing" into ["motor", "sail"].
func NormalizeYachtTypes(s string) []string {
	// "m/y" and "s/y" would be split on the slash otherwise.
	n := strings.NewReplacer("m/y", "my", "s/y", "sy").Replace(normalizeText(s))
	return normalizeList(n, yachtTypeAliases)
}

func normalizeList(s string, aliases map[string]string) []string {
	var out []string
	seen := map[string]bool{}
	for _, part := range splitList(normalizeText(s)) {
		v, ok := aliases[part]
		if !ok {
			continue
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// NormalizeAvailabilityStatus maps availability wording onto available, employed or unavailable.
func NormalizeAvailabilityStatus(s string) (string, bool) {
	n := normalizeText(s)
	switch {
	case n == "":
		return "", false
	case strings.Contains(n, "not available") || strings.Contains(n, "unavailable"):
		return "unavailable", true
	case strings.Contains(n, "employed") || strings.Contains(n, "working") || strings.Contains(n, "on board"):
		return "employed", true
	case strings.Contains(n, "available") || strings.Contains(n, "immediate"):
		return "available", true
	}
	return "", false
}

// parseYesNo reads a dictionary yes/no value.
func parseYesNo(s string) (bool, bool) {
	switch normalizeText(s) {
	case "yes", "y", "true", "1":
		return true, true
	case "no", "n", "false", "0":
		return false, true
	}
	return false, false
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
