// Package descriptor reads persistence unit names from JSON injection point
// metadata.
//
// A descriptor is the JSON form of a persistence annotation:
//
//	{"persistenceContext": {"unitName": "orders-db"}}
//	{"persistenceUnit": {"unitName": "users-db"}}
package descriptor

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/randalmurphal/persistunit/pkg/persistunit"
)

// Default paths, tried in order when JSON.Path is empty.
const (
	ContextPath = "persistenceContext.unitName"
	UnitPath    = "persistenceUnit.unitName"
)

var (
	// ErrNoUnitName indicates a descriptor without a usable unit name.
	ErrNoUnitName = errors.New("descriptor has no unit name")

	// ErrInvalidDescriptor indicates malformed JSON.
	ErrInvalidDescriptor = errors.New("invalid descriptor")
)

// JSON is an injection point backed by a JSON descriptor.
type JSON struct {
	Raw []byte

	// Path is a gjson path to the unit name. Empty means ContextPath,
	// then UnitPath.
	Path string
}

// Compile-time interface check.
var _ persistunit.InjectionPoint = JSON{}

// UnitName implements persistunit.InjectionPoint.
func (d JSON) UnitName() (string, error) {
	if !gjson.ValidBytes(d.Raw) {
		return "", ErrInvalidDescriptor
	}

	paths := []string{ContextPath, UnitPath}
	if d.Path != "" {
		paths = []string{d.Path}
	}

	for _, p := range paths {
		res := gjson.GetBytes(d.Raw, p)
		if !res.Exists() {
			continue
		}
		if res.Type != gjson.String || res.Str == "" {
			return "", fmt.Errorf("%w: %s is not a non-empty string", ErrNoUnitName, p)
		}
		return res.Str, nil
	}
	return "", ErrNoUnitName
}

// With returns raw with the unit name set at ContextPath. A nil raw
// starts from an empty object.
func With(raw []byte, unit string) ([]byte, error) {
	return WithPath(raw, ContextPath, unit)
}

// WithPath returns raw with the unit name set at path.
func WithPath(raw []byte, path, unit string) ([]byte, error) {
	if len(raw) > 0 && !gjson.ValidBytes(raw) {
		return nil, ErrInvalidDescriptor
	}
	out, err := sjson.SetBytes(raw, path, unit)
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", path, err)
	}
	return out, nil
}
