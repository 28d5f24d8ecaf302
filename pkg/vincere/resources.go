package vincere

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"crew-recruitment-backend/internal/domain"

	"github.com/mitchellh/mapstructure"
)

const (
	webhooksPath = "/webhooks"

	candidateSearchFields = "id,first_name,last_name,primary_email"
	positionSearchFields  = "id,job_title,company_name,created_date,last_update,job_status"

	// DefaultShortlistStage is the pipeline stage new application links land in.
	DefaultShortlistStage = "SHORTLISTED"

	dateLayout = "2006-01-02T15:04:05.000Z"
)

// Document kinds accepted by FileUploadPath.
const (
	UploadCV          = "cv"
	UploadPhoto       = "photo"
	UploadCertificate = "certificate"
	UploadDocument    = "document"
)

// CandidateSearchPath finds candidates by primary email, newest first.
func CandidateSearchPath(email string) string {
	q := url.QueryEscape("primary_email:" + strings.ToLower(strings.TrimSpace(email)) + "#")
	return fmt.Sprintf("/candidate/search/fl=%s;sort=created_date%%20desc?q=%s&start=0&limit=5", candidateSearchFields, q)
}

// PositionSearchPath pages through positions.
func PositionSearchPath(query string, start, limit int) string {
	p := fmt.Sprintf("/position/search/fl=%s?start=%d&limit=%d", positionSearchFields, start, limit)
	if query != "" {
		p += "&q=" + url.QueryEscape(query)
	}
	return p
}

func CandidatePath(ref string) string {
	return "/candidate/" + url.PathEscape(ref)
}

func CandidateCreatePath() string {
	return "/candidate"
}

func CandidateCustomFieldsPath(ref string) string {
	return CandidatePath(ref) + "/customfields"
}

func CandidateFilesPath(ref string) string {
	return CandidatePath(ref) + "/files"
}

// CandidateExpertisePath holds the functional expertise (position category) codes.
func CandidateExpertisePath(ref string) string {
	return CandidatePath(ref) + "/functionalexpertises"
}

// FileUploadPath returns the endpoint for a document kind. Photos and
// certificates have their own endpoints; everything else is a generic file.
func FileUploadPath(ref, kind string) string {
	switch kind {
	case UploadPhoto:
		return CandidatePath(ref) + "/photo"
	case UploadCertificate:
		return CandidatePath(ref) + "/certificate"
	}
	return CandidatePath(ref) + "/file"
}

func PositionPath(ref string) string {
	return "/position/" + url.PathEscape(ref)
}

func PositionCustomFieldsPath(ref string) string {
	return PositionPath(ref) + "/customfields"
}

func ShortlistPath(positionRef string) string {
	return PositionPath(positionRef) + "/shortlist"
}

// SearchResult is the envelope of every /search endpoint.
type SearchResult struct {
	Result struct {
		Items []map[string]any `json:"items"`
		Total int              `json:"total"`
	} `json:"result"`
}

// Decode converts the loosely typed search items into out, a pointer to a
// slice of structs tagged with mapstructure.
func (r SearchResult) Decode(out any) error {
	return decodeLoose(r.Result.Items, out)
}

// CreatedRecord is the body Vincere returns after creating an entity.
type CreatedRecord struct {
	ID int64 `json:"id"`
}

// ShortlistRequest links a candidate to a position.
type ShortlistRequest struct {
	CandidateID int64  `json:"candidate_id"`
	Stage       string `json:"stage"`
}

// ExpertiseRequest sets the candidate's position category.
type ExpertiseRequest struct {
	FunctionalExpertiseID int `json:"functional_expertise_id"`
}

// customField is the wire shape of one custom field as read from Vincere.
type customField struct {
	Key         string  `mapstructure:"key"`
	FieldKey    string  `mapstructure:"field_key"`
	FieldValue  *string `mapstructure:"field_value"`
	FieldValues []int   `mapstructure:"field_values"`
	DateValue   *string `mapstructure:"date_value"`
}

// DecodeCustomFields accepts either a bare list or a {"data": [...]} envelope.
// Entries without a key are skipped.
func DecodeCustomFields(raw any) ([]domain.CustomFieldValue, error) {
	if env, ok := raw.(map[string]any); ok {
		raw = env["data"]
	}
	if raw == nil {
		return nil, nil
	}

	var wire []customField
	if err := decodeLoose(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode custom fields: %w", err)
	}

	out := make([]domain.CustomFieldValue, 0, len(wire))
	for _, w := range wire {
		key := w.Key
		if key == "" {
			key = w.FieldKey
		}
		if key == "" {
			continue
		}
		cf := domain.CustomFieldValue{Key: key}
		switch {
		case w.DateValue != nil && strings.TrimSpace(*w.DateValue) != "":
			if t, ok := parseDate(*w.DateValue); ok {
				cf.Date = &t
			} else {
				cf.Value = w.DateValue
			}
		case len(w.FieldValues) > 0:
			cf.Codes = w.FieldValues
		case w.FieldValue != nil:
			cf.Value = w.FieldValue
		default:
			continue
		}
		out = append(out, cf)
	}
	return out, nil
}

// CustomFieldUpdate is the outbound shape for one custom field.
type CustomFieldUpdate struct {
	FieldKey    string  `json:"field_key"`
	FieldValue  *string `json:"field_value,omitempty"`
	FieldValues []int   `json:"field_values,omitempty"`
	DateValue   *string `json:"date_value,omitempty"`
}

// CustomFieldsRequest is the PATCH body for /customfields.
type CustomFieldsRequest struct {
	Data []CustomFieldUpdate `json:"data"`
}

// EncodeCustomFields converts mapped fields to the PATCH body. Values without
// content are dropped so nothing is cleared remotely.
func EncodeCustomFields(fields []domain.CustomFieldValue) CustomFieldsRequest {
	req := CustomFieldsRequest{Data: make([]CustomFieldUpdate, 0, len(fields))}
	for _, f := range fields {
		u := CustomFieldUpdate{FieldKey: f.Key}
		switch {
		case f.Date != nil:
			d := f.Date.UTC().Format(dateLayout)
			u.DateValue = &d
		case len(f.Codes) > 0:
			u.FieldValues = f.Codes
		case f.Value != nil && strings.TrimSpace(*f.Value) != "":
			u.FieldValue = f.Value
		default:
			continue
		}
		req.Data = append(req.Data, u)
	}
	return req
}

// ParseRef converts an external reference to Vincere's numeric id.
func ParseRef(ref string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(ref), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid vincere id %q", domain.ErrInvalidPayload, ref)
	}
	return id, nil
}

// FormatRef is the inverse of ParseRef.
func FormatRef(id int64) string {
	return strconv.FormatInt(id, 10)
}

func decodeLoose(in, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{dateLayout, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
