package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/climesync/internal/field"
	"github.com/Tiliavir/climesync/internal/model"
	"github.com/Tiliavir/climesync/internal/timesync"
)

var timeGrammar = Grammar{
	Positional: []Param{
		{Name: "duration", Kind: field.Duration},
		{Name: "project"},
		{Name: "activities", Kind: field.List, Repeated: true, Optional: true},
	},
	Flags: []Param{
		{Name: "date_worked", Kind: field.Date},
		{Name: "include_deleted", Kind: field.Bool},
		{Name: "user", Kind: field.List},
	},
}

func TestBind(t *testing.T) {
	tests := []struct {
		name       string
		positional []string
		flags      map[string][]string
		want       model.Record
		wantErr    string
	}{
		{
			name:       "readable duration",
			positional: []string{"1h30m", "gwm", "dev", "docs"},
			want:       model.Record{"duration": 5400, "project": "gwm", "activities": []string{"dev", "docs"}},
		},
		{
			name:       "seconds",
			positional: []string{"90", "gwm"},
			want:       model.Record{"duration": 90, "project": "gwm"},
		},
		{
			name:       "bracketed list",
			positional: []string{"1h0m", "gwm", "[dev docs]"},
			want:       model.Record{"duration": 3600, "project": "gwm", "activities": []string{"dev", "docs"}},
		},
		{
			name:       "flags",
			positional: []string{"0h5m", "gwm"},
			flags: map[string][]string{
				"date_worked":     {"2016-05-04"},
				"include_deleted": {"True"},
				"user":            {"userone,usertwo", "userthree"},
			},
			want: model.Record{
				"duration": 300, "project": "gwm", "date_worked": "2016-05-04",
				"include_deleted": true, "user": []string{"userone", "usertwo", "userthree"},
			},
		},
		{
			name:       "empty flag skipped",
			positional: []string{"0h5m", "gwm"},
			flags:      map[string][]string{"date_worked": {""}},
			want:       model.Record{"duration": 300, "project": "gwm"},
		},
		{name: "missing", positional: []string{"1h0m"}, wantErr: "missing argument <project>"},
		{name: "bad duration", positional: []string{"1.5h", "gwm"}, wantErr: "--duration"},
		{name: "negative", positional: []string{"-5", "gwm"}, wantErr: "negative duration"},
		{name: "bad date", positional: []string{"1h0m", "gwm"}, flags: map[string][]string{"date_worked": {"05/04/2016"}}, wantErr: "--date-worked"},
		{name: "bad bool", positional: []string{"1h0m", "gwm"}, flags: map[string][]string{"include_deleted": {"maybe"}}, wantErr: "True or False"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := timeGrammar.Bind(tt.positional, tt.flags)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBindExtraArguments(t *testing.T) {
	g := Grammar{Positional: []Param{{Name: "uuid"}}}
	_, err := g.Bind([]string{"a", "b"}, nil)
	assert.ErrorContains(t, err, "unexpected arguments: b")
}

func TestBindPairs(t *testing.T) {
	g := Grammar{Positional: []Param{
		{Name: "slug"},
		{Name: "users", Pairs: true, Optional: true},
	}}

	got, err := g.Bind([]string{"gwm", "userone", "5", "usertwo", "0"}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.Permissions{
		"userone": {Member: true, Manager: true},
		"usertwo": {},
	}, got["users"])

	got, err = g.Bind([]string{"gwm"}, nil)
	require.NoError(t, err)
	assert.NotContains(t, got, "users")

	_, err = g.Bind([]string{"gwm", "userone"}, nil)
	assert.ErrorContains(t, err, "pairs")
	_, err = g.Bind([]string{"gwm", "userone", "8"}, nil)
	assert.ErrorContains(t, err, "user userone")
}

func TestUsage(t *testing.T) {
	assert.Equal(t, "<duration> <project> [<activities>...]", timeGrammar.Usage())
	g := Grammar{Positional: []Param{{Name: "slug"}, {Name: "users", Pairs: true}}}
	assert.Equal(t, "<slug> (<username> <access_mode>)...", g.Usage())
	assert.Equal(t, "date-worked", Param{Name: "date_worked"}.Flag())
}

func TestToQuery(t *testing.T) {
	got := toQuery(model.Record{
		"project":         "gwm",
		"user":            []string{"userone", "usertwo"},
		"include_deleted": true,
		"start":           nil,
		"uuid":            "",
	})
	assert.Equal(t, timesync.Query{
		"project":         {"gwm"},
		"user":            {"userone", "usertwo"},
		"include_deleted": {"true"},
	}, got)
}
