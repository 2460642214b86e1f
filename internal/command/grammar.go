package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Tiliavir/climesync/internal/field"
	"github.com/Tiliavir/climesync/internal/model"
	"github.com/Tiliavir/climesync/internal/timecalc"
)

// Param is one scripted argument. Name is the record key; its flag form
// replaces underscores with dashes.
type Param struct {
	Name  string
	Kind  field.Kind
	Usage string
	// Optional positionals may be left out.
	Optional bool
	// Repeated consumes all remaining positionals as one list.
	Repeated bool
	// Pairs consumes all remaining positionals as <username> <access_mode>
	// pairs, bound as model.Permissions.
	Pairs bool
	// Switch flags take no value.
	Switch bool
	// Long overrides the flag name derived from Name.
	Long string
}

// Flag returns the long flag name for p.
func (p Param) Flag() string {
	if p.Long != "" {
		return p.Long
	}
	return strings.ReplaceAll(p.Name, "_", "-")
}

// Grammar is the scripted argument layout of a command.
type Grammar struct {
	Positional []Param
	Flags      []Param
}

// Usage renders the positional part of the grammar, e.g.
// "<duration> <project> [<activities>...]".
func (g Grammar) Usage() string {
	parts := make([]string, 0, len(g.Positional))
	for _, p := range g.Positional {
		s := "<" + p.Name + ">"
		switch {
		case p.Pairs && p.Optional:
			s = "[<username> <access_mode>]..."
		case p.Pairs:
			s = "(<username> <access_mode>)..."
		case p.Repeated && p.Optional:
			s = "[" + s + "...]"
		case p.Repeated:
			s += "..."
		case p.Optional:
			s = "[" + s + "]"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// Bind converts scripted arguments into a record. flags holds the values of
// supplied flags only, keyed by Param.Name. Empty values are skipped.
func (g Grammar) Bind(positional []string, flags map[string][]string) (model.Record, error) {
	out := model.Record{}

	rest := positional
	for _, p := range g.Positional {
		if p.Repeated || p.Pairs {
			if len(rest) == 0 && !p.Optional {
				return nil, fmt.Errorf("missing argument <%s>", p.Name)
			}
			if len(rest) > 0 {
				v, err := coerce(p, rest)
				if err != nil {
					return nil, err
				}
				out[p.Name] = v
			}
			rest = nil
			continue
		}
		if len(rest) == 0 {
			if p.Optional {
				continue
			}
			return nil, fmt.Errorf("missing argument <%s>", p.Name)
		}
		raw := rest[0]
		rest = rest[1:]
		if raw == "" {
			continue
		}
		v, err := coerce(p, []string{raw})
		if err != nil {
			return nil, err
		}
		out[p.Name] = v
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}

	for _, p := range g.Flags {
		values, ok := flags[p.Name]
		if !ok {
			continue
		}
		values = nonEmpty(values)
		if len(values) == 0 {
			continue
		}
		v, err := coerce(p, values)
		if err != nil {
			return nil, err
		}
		out[p.Name] = v
	}
	return out, nil
}

func coerce(p Param, values []string) (any, error) {
	if p.Pairs {
		return pairs(values)
	}
	last := values[len(values)-1]

	switch p.Kind {
	case field.List:
		var items []string
		for _, v := range values {
			items = append(items, splitScripted(v)...)
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("--%s: empty list", p.Flag())
		}
		return items, nil
	case field.Duration:
		if seconds, err := strconv.Atoi(last); err == nil {
			if seconds < 0 {
				return nil, fmt.Errorf("--%s: negative duration %d", p.Flag(), seconds)
			}
			return seconds, nil
		}
		seconds, err := timecalc.ParseDuration(last)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", p.Flag(), err)
		}
		return seconds, nil
	case field.Bool:
		b, err := strconv.ParseBool(last)
		if err != nil {
			return nil, fmt.Errorf("--%s: want True or False, got %q", p.Flag(), last)
		}
		return b, nil
	case field.Date:
		if _, err := timecalc.ParseDate(last); err != nil {
			return nil, fmt.Errorf("--%s: %w", p.Flag(), err)
		}
		return last, nil
	}
	return last, nil
}

// splitScripted accepts "[a b c]" as a space delimited list and anything else
// as a comma delimited one.
func splitScripted(v string) []string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "[") && strings.HasSuffix(v, "]") {
		return strings.Fields(v[1 : len(v)-1])
	}
	return field.SplitList(v)
}

func pairs(values []string) (model.Permissions, error) {
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("user permissions must be <username> <access_mode> pairs, got %d values", len(values))
	}
	out := make(model.Permissions, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		perm, err := model.ParsePermission(values[i+1])
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", values[i], err)
		}
		out[values[i]] = perm
	}
	return out, nil
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
