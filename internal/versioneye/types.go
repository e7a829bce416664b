package versioneye

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ProjectID identifies a project tracked by VersionEye.
type ProjectID string

// Dependency is one entry of a project's dependency report.
type Dependency struct {
	Name             string `json:"name"`
	Language         string `json:"language"`
	ProdKey          string `json:"prod_key"`
	VersionCurrent   string `json:"version_current"`
	VersionRequested string `json:"version_requested"`
	Outdated         bool   `json:"outdated"`
	// Vulnerable reports whether the API listed any security vulnerabilities.
	Vulnerable bool `json:"security_vulnerabilities"`
}

// Key returns the package identity used for cache lookups, "language:prod_key".
func (d Dependency) Key() string {
	return d.Language + ":" + d.ProdKey
}

// rawDependency mirrors the wire format. Pointer fields distinguish missing
// values from zero values so required fields can be enforced.
type rawDependency struct {
	Name             *string         `json:"name"`
	Language         *string         `json:"language"`
	ProdKey          *string         `json:"prod_key"`
	VersionCurrent   json.RawMessage `json:"version_current"`
	VersionRequested json.RawMessage `json:"version_requested"`
	Outdated         *bool           `json:"outdated"`
	Vulnerabilities  json.RawMessage `json:"security_vulnerabilities"`
}

type projectResponse struct {
	Dependencies *[]rawDependency `json:"dependencies"`
}

func (r rawDependency) toDependency(index int) (Dependency, error) {
	missing := func(field string) error {
		return fmt.Errorf("%w: dependency %d: missing %s", ErrMalformedResponse, index, field)
	}
	if r.Name == nil || *r.Name == "" {
		return Dependency{}, missing("name")
	}
	if r.Language == nil || *r.Language == "" {
		return Dependency{}, missing("language")
	}
	if r.ProdKey == nil || *r.ProdKey == "" {
		return Dependency{}, missing("prod_key")
	}
	if r.Outdated == nil {
		return Dependency{}, missing("outdated")
	}

	current, err := decodeVersion(r.VersionCurrent)
	if err != nil {
		return Dependency{}, fmt.Errorf("%w: dependency %d: version_current: %v", ErrMalformedResponse, index, err)
	}
	requested, err := decodeVersion(r.VersionRequested)
	if err != nil {
		return Dependency{}, fmt.Errorf("%w: dependency %d: version_requested: %v", ErrMalformedResponse, index, err)
	}

	return Dependency{
		Name:             *r.Name,
		Language:         *r.Language,
		ProdKey:          *r.ProdKey,
		VersionCurrent:   current,
		VersionRequested: requested,
		Outdated:         *r.Outdated,
		Vulnerable:       truthy(r.Vulnerabilities),
	}, nil
}

// decodeVersion accepts a JSON string, number or null.
func decodeVersion(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("unexpected value %s", raw)
}

// truthy reports whether a JSON value would be considered set: true, a non-zero
// number, a non-empty string, array or object. Missing and null are false.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 'n', 'f':
		return false
	case 't':
		return true
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return false
		}
		return s != ""
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return false
		}
		return len(items) > 0
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return false
		}
		return len(fields) > 0
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		return err == nil && f != 0
	}
}

// decodeProjectList extracts identifiers from a project listing. The API has
// shipped entries as bare strings and as objects carrying the identifier in
// "ids" (v2) or "id"; all three are accepted.
func decodeProjectList(body []byte) ([]ProjectID, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("%w: project list is not an array: %v", ErrMalformedResponse, err)
	}

	ids := make([]ProjectID, 0, len(entries))
	for i, entry := range entries {
		id, err := decodeProjectEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: project %d: %v", ErrMalformedResponse, i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func decodeProjectEntry(entry json.RawMessage) (ProjectID, error) {
	entry = bytes.TrimSpace(entry)
	if len(entry) == 0 {
		return "", errors.New("empty entry")
	}

	switch entry[0] {
	case '"':
		var s string
		if err := json.Unmarshal(entry, &s); err != nil {
			return "", err
		}
		return nonEmptyID(s)
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(entry, &obj); err != nil {
			return "", err
		}
		for _, field := range []string{"ids", "id"} {
			raw, ok := obj[field]
			if !ok {
				continue
			}
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return "", fmt.Errorf("field %q is not a string", field)
			}
			return nonEmptyID(s)
		}
		return "", errors.New(`object has neither "ids" nor "id"`)
	default:
		return "", fmt.Errorf("unexpected value %s", entry)
	}
}

func nonEmptyID(s string) (ProjectID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("empty project identifier")
	}
	return ProjectID(s), nil
}
