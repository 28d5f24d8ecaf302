package storage

import (
	"mime"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

var (
	nonASCIIRe    = regexp.MustCompile(`[^\x00-\x7F]+`)
	spacesRe      = regexp.MustCompile(`\s+`)
	unsafeCharsRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	underscoresRe = regexp.MustCompile(`_+`)
	dotsRe        = regexp.MustCompile(`\.+`)
)

// SanitizeFileName makes a name safe for object keys: ASCII only, no quotes,
// whitespace as underscores. Empty results get a generated name.
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = norm.NFKD.String(name)
	name = nonASCIIRe.ReplaceAllString(name, "")
	name = strings.NewReplacer("'", "", `"`, "").Replace(name)
	name = spacesRe.ReplaceAllString(name, "_")
	name = unsafeCharsRe.ReplaceAllString(name, "")
	name = underscoresRe.ReplaceAllString(name, "_")
	name = dotsRe.ReplaceAllString(name, ".")

	switch name {
	case "", ".", "_", "-":
		return "document_" + uuid.NewString()[:8]
	}
	return name
}

// ObjectKey builds "candidates/{id}/{kind}/{uuid}_{name}".
func ObjectKey(candidateID, kind, fileName string) string {
	return strings.Join([]string{
		"candidates",
		candidateID,
		kind,
		uuid.NewString()[:8] + "_" + SanitizeFileName(fileName),
	}, "/")
}

// ContentType guesses the MIME type from the extension.
func ContentType(fileName string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
