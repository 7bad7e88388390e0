package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseJSON decodes a JSON string into v.
func ParseJSON(data string, v interface{}) error {
	return decodeJSON(strings.NewReader(data), v, false)
}

// ParseJSONStrict decodes a JSON string into v, rejecting unknown fields.
func ParseJSONStrict(data string, v interface{}) error {
	return decodeJSON(strings.NewReader(data), v, true)
}

// ParseJSONBytes decodes a JSON byte slice into v.
func ParseJSONBytes(data []byte, v interface{}) error {
	return decodeJSON(bytes.NewReader(data), v, false)
}

// DecodeJSON decodes from a reader with unified settings.
func DecodeJSON(r io.Reader, v interface{}) error {
	return decodeJSON(r, v, false)
}

func decodeJSON(r io.Reader, v interface{}, disallowUnknown bool) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if disallowUnknown {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(v); err != nil {
		return err
	}

	// Reject trailing data after the first value.
	for {
		t, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if t != nil {
			return fmt.Errorf("unexpected extra JSON data")
		}
	}
}

var unquotedKeyPattern = regexp.MustCompile(`([{\[,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)

// QuoteJSONKeys adds double quotes around bare object keys.
func QuoteJSONKeys(raw string) string {
	return unquotedKeyPattern.ReplaceAllString(raw, `$1"$2":`)
}

// ExtractJSON strips markdown fences and trims the input down to the largest
// well-formed JSON object or array substring. Returns "" when no valid
// document can be carved out.
func ExtractJSON(raw string) string {
	txt := strings.TrimSpace(raw)
	txt = strings.TrimPrefix(txt, "```json")
	txt = strings.TrimPrefix(txt, "```")
	txt = strings.TrimSuffix(txt, "```")
	txt = strings.TrimSpace(txt)

	if gjson.Valid(txt) {
		return txt
	}

	if sub := widestSpan(txt, '{', '}'); sub != "" {
		return sub
	}
	if sub := widestSpan(txt, '[', ']'); sub != "" {
		return sub
	}

	// Bare object keys fail both probes; quote them and retry.
	quoted := QuoteJSONKeys(txt)
	if quoted == txt {
		return ""
	}
	if gjson.Valid(quoted) {
		return quoted
	}
	if sub := widestSpan(quoted, '{', '}'); sub != "" {
		return sub
	}
	return widestSpan(quoted, '[', ']')
}

// widestSpan takes the outermost open..close span and shrinks the tail until
// the span parses, so a truncated document still yields its valid prefix
// structure where one exists.
func widestSpan(txt string, open, close byte) string {
	start := strings.IndexByte(txt, open)
	if start == -1 {
		return ""
	}
	end := strings.LastIndexByte(txt, close)
	for end > start {
		candidate := txt[start : end+1]
		if gjson.Valid(candidate) {
			return candidate
		}
		end = strings.LastIndexByte(txt[:end], close)
	}
	return ""
}

// ToJSON marshals v into a JSON string.
func ToJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
