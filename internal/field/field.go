// Package field turns raw user input into typed values for TimeSync records.
package field

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Tiliavir/climesync/internal/timecalc"
)

// Kind selects how raw input is coerced.
type Kind int

const (
	Text Kind = iota
	Bool
	Duration
	Date
	List
	Password
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Bool:
		return "bool"
	case Duration:
		return "duration"
	case Date:
		return "date"
	case List:
		return "list"
	case Password:
		return "password"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Spec describes one field to collect.
type Spec struct {
	Name     string
	Prompt   string
	Kind     Kind
	Optional bool
	// Choices restricts Text and List values. A nil slice means any value is
	// accepted; an empty non-nil slice accepts nothing.
	Choices []string
	// NotBefore is the earliest accepted Date, as YYYY-MM-DD.
	NotBefore string
}

// UnsatisfiableError is returned for a required field that has no valid choices.
type UnsatisfiableError struct {
	Field string
}

func (e *UnsatisfiableError) Error() string {
	return fmt.Sprintf("no valid choices for field %s", e.Field)
}

var errEmpty = errors.New("empty value")

// Parse coerces raw into the Go type for kind: string for Text, Password and
// Date, bool for Bool, int seconds for Duration and []string for List.
func Parse(kind Kind, raw string) (any, error) {
	switch kind {
	case Text, Password:
		return raw, nil
	case Bool:
		switch strings.ToLower(raw) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		return nil, fmt.Errorf("invalid yes/no answer %q", raw)
	case Duration:
		return timecalc.ParseDuration(raw)
	case Date:
		if _, err := timecalc.ParseDate(raw); err != nil {
			return nil, err
		}
		return raw, nil
	case List:
		items := SplitList(raw)
		if len(items) == 0 {
			return nil, errEmpty
		}
		return items, nil
	}
	return nil, fmt.Errorf("unsupported field kind %s", kind)
}

// SplitList splits a comma delimited list, trimming and dropping empty elements.
func SplitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// reject applies the spec's choice and date constraints to a parsed value and
// returns the message to show when the value is not accepted.
func (s Spec) reject(value any) string {
	switch s.Kind {
	case Text:
		if s.Choices != nil && !slices.Contains(s.Choices, value.(string)) {
			return fmt.Sprintf("Invalid value: %s\nValid values: %s", value, strings.Join(s.Choices, ", "))
		}
	case List:
		if s.Choices == nil {
			return ""
		}
		var invalid []string
		for _, item := range value.([]string) {
			if !slices.Contains(s.Choices, item) {
				invalid = append(invalid, item)
			}
		}
		if len(invalid) > 0 {
			return fmt.Sprintf("Invalid value(s): %s\nValid values: %s", strings.Join(invalid, ", "), strings.Join(s.Choices, ", "))
		}
	case Date:
		if s.NotBefore != "" && value.(string) < s.NotBefore {
			return fmt.Sprintf("Date must be on or after %s", s.NotBefore)
		}
	}
	return ""
}

func (k Kind) known() bool {
	return k >= Text && k <= Password
}

func (k Kind) hint(optional bool) string {
	switch k {
	case Bool:
		if optional {
			return "(y/N) "
		}
		return "(y/n) "
	case Duration:
		return "(Time input - <value>h<value>m) "
	case Date:
		return "(Date input - YYYY-MM-DD) "
	case List:
		return "(Comma delimited) "
	case Password:
		return "(Hidden) "
	}
	return ""
}
