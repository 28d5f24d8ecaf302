// Package docclass assigns a document type to candidate files from their
// name and source flags. Everything here is deterministic and free of I/O.
package docclass

import (
	"strings"

	"crew-recruitment-backend/internal/domain"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

type Method string

const (
	MethodExplicitFlag    Method = "explicit-flag"
	MethodExtension       Method = "extension"
	MethodFilenamePattern Method = "filename-pattern"
	MethodDefault         Method = "default"
)

// File is what the classifier knows about a document. IsCV is the source
// system's own "this is the CV" flag.
type File struct {
	FileName string
	IsCV     bool
	URL      string
}

// Result is a classification outcome. MatchedPattern is set for
// pattern-based matches.
type Result struct {
	Type           string     `json:"type"`
	Confidence     Confidence `json:"confidence"`
	Method         Method     `json:"method"`
	MatchedPattern string     `json:"matched_pattern,omitempty"`
}

// Stage is one step of the cascade. It returns ok=false to hand over to the
// next stage.
type Stage struct {
	Name string
	Run  func(f File) (Result, bool)
}

var defaultStages = []Stage{
	{Name: "explicit-flag", Run: explicitFlagStage},
	{Name: "image", Run: imageStage},
	{Name: "filename-pattern", Run: filenamePatternStage},
}

// Stages returns the cascade in evaluation order.
func Stages() []Stage {
	return append([]Stage(nil), defaultStages...)
}

// Classify runs the cascade. The first stage with a result wins; files no
// stage recognises are "other" with low confidence.
func Classify(f File) Result {
	for _, s := range defaultStages {
		if r, ok := s.Run(f); ok {
			return r
		}
	}
	return Result{Type: domain.DocumentTypeOther, Confidence: ConfidenceLow, Method: MethodDefault}
}

func explicitFlagStage(f File) (Result, bool) {
	if !f.IsCV {
		return Result{}, false
	}
	return Result{Type: domain.DocumentTypeCV, Confidence: ConfidenceHigh, Method: MethodExplicitFlag}, true
}

func imageStage(f File) (Result, bool) {
	if !IsImage(f.FileName) {
		return Result{}, false
	}
	name := normalizeName(f.FileName)
	if _, ok := matchFirst(name, cvPatterns.patterns); ok {
		// A photographed CV is still a CV.
		return Result{}, false
	}
	for _, tp := range scanOrder {
		if p, ok := matchFirst(name, tp.patterns); ok {
			return Result{Type: tp.docType, Confidence: ConfidenceMedium, Method: MethodFilenamePattern, MatchedPattern: p}, true
		}
	}
	return Result{Type: domain.DocumentTypePhoto, Confidence: ConfidenceHigh, Method: MethodExtension}, true
}

func filenamePatternStage(f File) (Result, bool) {
	name := normalizeName(f.FileName)
	if name == "" {
		return Result{}, false
	}
	for _, tp := range filenameOrder {
		if p, ok := matchFirst(name, tp.patterns); ok {
			return Result{Type: tp.docType, Confidence: ConfidenceMedium, Method: MethodFilenamePattern, MatchedPattern: p}, true
		}
	}
	return Result{}, false
}

// Exclusion tells the caller to skip a file entirely.
type Exclusion struct {
	Excluded       bool   `json:"excluded"`
	Reason         string `json:"reason,omitempty"`
	MatchedPattern string `json:"matched_pattern,omitempty"`
}

// ShouldExclude flags files that must never be imported, whatever Classify
// would say about them.
func ShouldExclude(f File) Exclusion {
	raw := strings.ToLower(f.FileName)
	for _, rule := range exclusionRules {
		if rule.pattern.MatchString(raw) {
			return Exclusion{Excluded: true, Reason: rule.reason, MatchedPattern: rule.pattern.String()}
		}
	}
	return Exclusion{}
}
