package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/climesync/internal/session"
	"github.com/Tiliavir/climesync/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:         "status",
	Short:       "Show the open clock-in session",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{offline: "true"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		sess, err := cc.Sessions.Read()
		if err != nil {
			return err
		}
		return printStatus(cmd.OutOrStdout(), sess, time.Now())
	},
}

func printStatus(w io.Writer, sess *session.Session, now time.Time) error {
	if sess == nil {
		fmt.Fprintln(w, "Not clocked in.")
		return nil
	}
	start, err := sess.Start(now.Location())
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Clocked in:")
	fmt.Fprintf(w, "  Project: %s\n", sess.Project)
	if len(sess.Activities) > 0 {
		fmt.Fprintf(w, "  Activities: %s\n", strings.Join(sess.Activities, ", "))
	}
	if sess.IssueURI != "" {
		fmt.Fprintf(w, "  Issue: %s\n", sess.IssueURI)
	}
	fmt.Fprintf(w, "  User: %s\n", sess.User)
	fmt.Fprintf(w, "  Since: %s %s\n", sess.StartDate, sess.StartTime)
	if elapsed := int64(now.Sub(start) / time.Second); elapsed >= 0 {
		fmt.Fprintf(w, "  Elapsed: %s\n", timecalc.FormatDurationHHMMSS(elapsed))
	}
	return nil
}
