package catalog

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"strings"
)

// ValidationError describes a payload that is not a well-formed result.
type ValidationError struct {
	MediaType MediaType `json:"media_type,omitempty"`
	Missing   []string  `json:"missing,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid search result")
	if e.MediaType != "" {
		fmt.Fprintf(&b, " (%s)", e.MediaType)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if len(e.Missing) > 0 {
		b.WriteString(": missing ")
		b.WriteString(strings.Join(e.Missing, ", "))
	}
	return b.String()
}

// Required keys per media type. Keys must be present; null values are
// tolerated the same way the catalog itself emits them. Image paths are
// optional so results without artwork still make it into lists.
var requiredKeys = map[MediaType][]string{
	MediaMovie:  {"id", "title", "overview", "popularity", "vote_count", "vote_average"},
	MediaTV:     {"id", "name", "overview", "popularity", "vote_count", "vote_average"},
	MediaPerson: {"id", "name"},
}

// ParseResult decodes a single search result payload into its variant.
// Every failure is returned as a *ValidationError.
func ParseResult(raw []byte) (Result, error) {
	var fields map[string]jsontext.Value
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &ValidationError{Reason: "payload is not a JSON object"}
	}

	var tag MediaType
	tagRaw, ok := fields["media_type"]
	if !ok {
		return nil, &ValidationError{Missing: []string{"media_type"}}
	}
	if err := json.Unmarshal(tagRaw, &tag); err != nil {
		return nil, &ValidationError{Reason: "media_type must be a string"}
	}

	required, known := requiredKeys[tag]
	if !known {
		return nil, &ValidationError{MediaType: tag, Reason: "unsupported media type"}
	}

	var missing []string
	for _, key := range required {
		if _, ok := fields[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{MediaType: tag, Missing: missing}
	}

	var result Result
	switch tag {
	case MediaMovie:
		result = &Movie{}
	case MediaTV:
		result = &TVShow{}
	case MediaPerson:
		result = &Person{}
	}

	if err := json.Unmarshal(raw, result); err != nil {
		return nil, &ValidationError{MediaType: tag, Reason: err.Error()}
	}
	return result, nil
}

// ParseListable parses raw and additionally requires a movie or TV result.
func ParseListable(raw []byte) (Result, error) {
	result, err := ParseResult(raw)
	if err != nil {
		return nil, err
	}
	if !result.MediaType().Listable() {
		return nil, &ValidationError{MediaType: result.MediaType(), Reason: "only movies and TV shows can be added to a list"}
	}
	return result, nil
}

// ParseResults parses a page of raw results, dropping malformed entries.
// rejected counts the entries that failed to parse.
func ParseResults(raws []jsontext.Value) (results []Result, rejected int) {
	results = make([]Result, 0, len(raws))
	for _, raw := range raws {
		r, err := ParseResult(raw)
		if err != nil {
			rejected++
			continue
		}
		results = append(results, r)
	}
	return results, rejected
}
