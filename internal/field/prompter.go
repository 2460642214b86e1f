package field

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"github.com/Tiliavir/climesync/internal/model"
	"github.com/Tiliavir/climesync/internal/timecalc"
)

const invalidInput = "Please submit a valid input"

// None is shown as the current value of a field that is present but null.
const None = "None"

// PasswordReader reads one line without echoing it.
type PasswordReader func(prompt string) (string, error)

// Prompter asks for field values on a line-oriented terminal.
type Prompter struct {
	in           *bufio.Reader
	out          io.Writer
	readPassword PasswordReader
}

// NewPrompter reads answers from in and writes prompts to out. When in is a
// terminal, passwords are read without echo.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		p.readPassword = func(prompt string) (string, error) {
			fmt.Fprint(p.out, prompt)
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(p.out)
			if err != nil {
				return "", err
			}
			return string(b), nil
		}
	} else {
		p.readPassword = p.Line
	}
	return p
}

// SetPasswordReader replaces the function used for Password fields.
func (p *Prompter) SetPasswordReader(fn PasswordReader) {
	p.readPassword = fn
}

// Out is the writer prompts and messages go to.
func (p *Prompter) Out() io.Writer {
	return p.out
}

// Line prints prompt and returns the next input line without its line ending.
// It returns io.EOF once the input is exhausted.
func (p *Prompter) Line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Field asks for one value. current, if non-nil, is shown as the value being
// replaced. ok is false when an optional field was left empty or the kind is
// not supported.
func (p *Prompter) Field(spec Spec, current any) (value any, ok bool, err error) {
	if !spec.Kind.known() {
		return nil, false, nil
	}
	if spec.Choices != nil && len(spec.Choices) == 0 && (spec.Kind == Text || spec.Kind == List) {
		if spec.Optional {
			return nil, false, nil
		}
		return nil, false, &UnsatisfiableError{Field: spec.Name}
	}

	prompt := formatPrompt(spec, current)
	for {
		var raw string
		if spec.Kind == Password {
			raw, err = p.readPassword(prompt)
		} else {
			raw, err = p.Line(prompt)
		}
		if err != nil {
			return nil, false, err
		}

		if raw == "" {
			if spec.Optional {
				return nil, false, nil
			}
			fmt.Fprintln(p.out, invalidInput)
			continue
		}

		v, err := Parse(spec.Kind, raw)
		if err != nil {
			fmt.Fprintln(p.out, invalidInput)
			continue
		}
		if msg := spec.reject(v); msg != "" {
			fmt.Fprintln(p.out, msg)
			continue
		}
		return v, true, nil
	}
}

// Collect asks for every spec in order and returns the supplied values.
// Values in current are shown as pre-fills. A resolved "start" date becomes
// the lower bound of a following "end" date.
func (p *Prompter) Collect(specs []Spec, current model.Record) (model.Record, error) {
	out := model.Record{}
	var start string
	for _, spec := range specs {
		if spec.Name == "end" && start != "" {
			spec.NotBefore = start
		}

		var cur any
		if v, found := current[spec.Name]; found {
			cur = v
			if cur == nil {
				cur = None
			}
		}

		v, ok, err := p.Field(spec, cur)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out[spec.Name] = v
		if spec.Name == "start" {
			start, _ = v.(string)
		}
	}
	return out, nil
}

// Confirm asks a yes/no question. An optional question left empty is a no.
func (p *Prompter) Confirm(prompt string, optional bool) (bool, error) {
	v, ok, err := p.Field(Spec{Name: "confirm", Prompt: prompt, Kind: Bool, Optional: optional}, nil)
	if err != nil || !ok {
		return false, err
	}
	return v.(bool), nil
}

// CollectPermissions asks for the roles of each user. Roles already held in
// current are shown as pre-fills.
func (p *Prompter) CollectPermissions(users []string, current model.Permissions) (model.Permissions, error) {
	out := make(model.Permissions, len(users))
	for _, user := range users {
		var cur *model.Permission
		if perm, found := current[user]; found {
			cur = &perm
		}
		var perm model.Permission
		for _, role := range []struct {
			name string
			dst  *bool
			has  func(model.Permission) bool
		}{
			{"member", &perm.Member, func(p model.Permission) bool { return p.Member }},
			{"spectator", &perm.Spectator, func(p model.Permission) bool { return p.Spectator }},
			{"manager", &perm.Manager, func(p model.Permission) bool { return p.Manager }},
		} {
			var prefill any
			if cur != nil {
				prefill = role.has(*cur)
			}
			spec := Spec{Name: role.name, Prompt: fmt.Sprintf("Is %s a project %s?", user, role.name), Kind: Bool}
			v, _, err := p.Field(spec, prefill)
			if err != nil {
				return nil, err
			}
			*role.dst = v.(bool)
		}
		out[user] = perm
	}
	return out, nil
}

func formatPrompt(spec Spec, current any) string {
	var b strings.Builder
	if spec.Optional {
		b.WriteString("(Optional) ")
	}
	b.WriteString(spec.Kind.hint(spec.Optional))
	b.WriteString(spec.Prompt)
	if current != nil {
		fmt.Fprintf(&b, " [%s]", Render(spec.Kind, current))
	}
	b.WriteString(": ")
	return b.String()
}

// Render formats a current value for display in a prompt.
func Render(kind Kind, v any) string {
	if kind == Password {
		return "hidden"
	}
	switch val := v.(type) {
	case nil:
		return None
	case string:
		return val
	case bool:
		if val {
			return "y"
		}
		return "n"
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ", ")
	case model.Permissions:
		return strings.Join(val.Usernames(), ", ")
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return strings.Join(keys, ", ")
	}
	if kind == Duration {
		if seconds, ok := model.AsInt(v); ok {
			return timecalc.FormatDuration(seconds)
		}
	}
	return fmt.Sprint(v)
}
