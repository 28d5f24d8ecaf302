package fieldmap

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Range is a parsed numeric range with an optional currency. All fields are
// nil when the input holds no number.
type Range struct {
	Min      *int
	Max      *int
	Currency *string
}

var (
	rangeRe     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*k?\s*(?:-|–|—|to)\s*(\d+(?:\.\d+)?)`)
	numberRe    = regexp.MustCompile(`\d+(?:\.\d+)?`)
	kMarkerRe   = regexp.MustCompile(`\d\s*k\b`)
	thousandsRe = regexp.MustCompile(`(\d),(\d{3})\b`)
	unitRe      = regexp.MustCompile(`\s*(?:m|mt|mtr|meters?|metres?|ft|feet)\b`)
)

var currencyMarkers = []struct {
	pattern *regexp.Regexp
	code    string
}{
	{regexp.MustCompile(`€|\beur\b|\beuros?\b`), "EUR"},
	{regexp.MustCompile(`£|\bgbp\b|\bpounds?\b`), "GBP"},
	{regexp.MustCompile(`\$|\busd\b|\bdollars?\b`), "USD"},
}

// ParseRange reads "X-Y", "X to Y", "Xk-Yk" and single values. A "k" marker
// multiplies values below 100 by 1000. Min and max are swapped when reversed.
func ParseRange(s string) Range {
	lower := strings.ToLower(strings.TrimSpace(s))
	if lower == "" {
		return Range{}
	}
	lower = thousandsRe.ReplaceAllString(lower, "$1$2")

	var minV, maxV float64
	if m := rangeRe.FindStringSubmatch(lower); m != nil {
		minV, _ = strconv.ParseFloat(m[1], 64)
		maxV, _ = strconv.ParseFloat(m[2], 64)
	} else if n := numberRe.FindString(lower); n != "" {
		minV, _ = strconv.ParseFloat(n, 64)
		maxV = minV
	} else {
		return Range{}
	}

	if kMarkerRe.MatchString(lower) {
		minV = scaleThousands(minV)
		maxV = scaleThousands(maxV)
	}
	if !storable(minV) || !storable(maxV) {
		return Range{}
	}
	if minV > maxV {
		minV, maxV = maxV, minV
	}

	r := Range{Min: intPtr(round(minV)), Max: intPtr(round(maxV))}
	for _, c := range currencyMarkers {
		if c.pattern.MatchString(lower) {
			code := c.code
			r.Currency = &code
			break
		}
	}
	return r
}

// ParseSalary is ParseRange with EUR assumed when no currency is given.
func ParseSalary(s string) Range {
	r := ParseRange(s)
	if r.Min != nil && r.Currency == nil {
		eur := "EUR"
		r.Currency = &eur
	}
	return r
}

// ParseYachtSize reads a length range in metres, ignoring unit suffixes.
func ParseYachtSize(s string) Range {
	r := ParseRange(unitRe.ReplaceAllString(strings.ToLower(s), ""))
	r.Currency = nil
	return r
}

// FormatRange renders a range the way ParseRange reads it back.
func FormatRange(minV, maxV *int, suffix string) string {
	switch {
	case minV != nil && maxV != nil && *minV != *maxV:
		return fmt.Sprintf("%d-%d%s", *minV, *maxV, suffix)
	case minV != nil:
		return fmt.Sprintf("%d%s", *minV, suffix)
	case maxV != nil:
		return fmt.Sprintf("%d%s", *maxV, suffix)
	}
	return ""
}

// FormatYachtSize renders "40-60m".
func FormatYachtSize(minV, maxV *int) string {
	return FormatRange(minV, maxV, "m")
}

// FormatSalary renders "5000-7000 EUR".
func FormatSalary(minV, maxV *int, currency *string) string {
	out := FormatRange(minV, maxV, "")
	if out != "" && currency != nil && *currency != "" {
		out += " " + strings.ToUpper(*currency)
	}
	return out
}

func scaleThousands(v float64) float64 {
	if v < 100 {
		return v * 1000
	}
	return v
}

// storable reports whether v fits the integer columns ranges are kept in.
func storable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= math.MaxInt32
}

func round(v float64) int {
	return int(math.Round(v))
}

func intPtr(v int) *int {
	return &v
}
