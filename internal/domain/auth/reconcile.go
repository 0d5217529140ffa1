package auth

import (
	"bytes"
	"encoding/json"
)

// ValidationError is one field message reported by the auth service.
type ValidationError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ReconcileServerErrors flattens a 400 body of the form
//
//	{"errors": {"<field>": ["<message>", ...], ...}}
//
// into one ValidationError per message. Fields keep the order they appear in the body and
// messages keep their order within a field. Fields whose value is not an array are skipped,
// as are array elements that are not strings. A body that does not match the schema yields
// an empty list.
func ReconcileServerErrors(body []byte) []ValidationError {
	out := []ValidationError{}
	if !json.Valid(body) {
		return out
	}

	fields, values, ok := decodeErrorsObject(body)
	if !ok {
		return out
	}

	for _, field := range fields {
		raw := bytes.TrimSpace(values[field])
		if len(raw) == 0 || raw[0] != '[' {
			continue
		}
		var messages []json.RawMessage
		if err := json.Unmarshal(raw, &messages); err != nil {
			continue
		}
		for _, m := range messages {
			if len(m) == 0 || m[0] != '"' {
				continue
			}
			var text string
			if err := json.Unmarshal(m, &text); err != nil {
				continue
			}
			out = append(out, ValidationError{Code: field, Description: text})
		}
	}
	return out
}

// decodeErrorsObject returns the keys of the top-level "errors" object in document order
// with their raw values. A repeated key keeps its first position and its last value, and a
// repeated "errors" key replaces the earlier one.
func decodeErrorsObject(body []byte) ([]string, map[string]json.RawMessage, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	if !expectDelim(dec, '{') {
		return nil, nil, false
	}

	var (
		fields []string
		values map[string]json.RawMessage
		found  bool
	)
	for dec.More() {
		key, ok := readKey(dec)
		if !ok {
			return nil, nil, false
		}
		if key != "errors" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, nil, false
			}
			continue
		}
		fields, values, ok = decodeOrderedObject(dec)
		if !ok {
			return nil, nil, false
		}
		found = true
	}
	return fields, values, found
}

func decodeOrderedObject(dec *json.Decoder) ([]string, map[string]json.RawMessage, bool) {
	if !expectDelim(dec, '{') {
		return nil, nil, false
	}

	var fields []string
	values := make(map[string]json.RawMessage)
	for dec.More() {
		key, ok := readKey(dec)
		if !ok {
			return nil, nil, false
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, false
		}
		if _, seen := values[key]; !seen {
			fields = append(fields, key)
		}
		values[key] = raw
	}
	if !expectDelim(dec, '}') {
		return nil, nil, false
	}
	return fields, values, true
}

func readKey(dec *json.Decoder) (string, bool) {
	tok, err := dec.Token()
	if err != nil {
		return "", false
	}
	key, ok := tok.(string)
	return key, ok
}

func expectDelim(dec *json.Decoder, want json.Delim) bool {
	tok, err := dec.Token()
	if err != nil {
		return false
	}
	d, ok := tok.(json.Delim)
	return ok && d == want
}
