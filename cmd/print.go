package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Tiliavir/climesync/internal/command"
	"github.com/Tiliavir/climesync/internal/field"
	"github.com/Tiliavir/climesync/internal/model"
	"github.com/Tiliavir/climesync/internal/timecalc"
	"github.com/Tiliavir/climesync/internal/timesync"
)

var (
	keyStyle   = lipgloss.NewStyle().Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// durationKeys hold seconds and are shown as {h}h{m}m.
var durationKeys = map[string]bool{"duration": true, "time_total": true}

func printResult(w io.Writer, res command.Result) {
	printRecords(w, res.Records)
	if res.Note != "" {
		fmt.Fprintln(w, res.Note)
	}
}

// printRecords prints each record as key: value lines, separated by a blank
// line.
func printRecords(w io.Writer, records []model.Record) {
	for i, rec := range records {
		if i > 0 {
			fmt.Fprintln(w)
		}
		for _, k := range rec.Keys() {
			printValue(w, k, rec[k])
		}
	}
}

func printValue(w io.Writer, key string, v any) {
	label := keyStyle.Render(key + ":")
	if durationKeys[key] {
		if seconds, ok := model.AsInt(v); ok {
			fmt.Fprintf(w, "%s %s\n", label, timecalc.FormatDuration(seconds))
			return
		}
	}

	switch val := v.(type) {
	case model.Permissions, map[string]model.Permission:
		perms := model.PermissionsOf(val)
		fmt.Fprintln(w, label)
		for _, user := range perms.Usernames() {
			fmt.Fprintf(w, "  %s <%s>\n", user, strings.Join(perms[user].Roles(), ", "))
		}
	case map[string][]string:
		fmt.Fprintln(w, label)
		names := make([]string, 0, len(val))
		for name := range val {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s <%s>\n", name, strings.Join(val[name], ", "))
		}
	case map[string]any:
		if key == "users" {
			printValue(w, key, model.PermissionsOf(val))
			return
		}
		fmt.Fprintf(w, "%s %s\n", label, field.Render(field.Text, val))
	default:
		fmt.Fprintf(w, "%s %s\n", label, field.Render(field.Text, val))
	}
}

// printError prints err. Server errors also show their status.
func printError(w io.Writer, err error) {
	var apiErr *timesync.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(w, "%s %v (status %d)\n", errorStyle.Render("error:"), err, apiErr.Status)
		return
	}
	fmt.Fprintf(w, "%s %v\n", errorStyle.Render("error:"), err)
}
