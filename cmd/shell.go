package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/climesync/internal/command"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	tokenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Width(5)
)

// runShell reads one command token per line until quit or end of input.
// Errors are printed and the loop continues.
func runShell(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Climesync - TimeSync command-line client. Type h for help.")
	prompt := promptStyle.Render("(climesync)") + " "

	for {
		line, err := cc.Prompter.Line(prompt)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return err
		}

		switch token := strings.TrimSpace(line); token {
		case "":
		case "h", "help":
			printMenu(out)
		case "q", "quit", "exit":
			return nil
		default:
			res, err := command.Invoke(cmd.Context(), cc, token, nil)
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			if err != nil {
				printError(os.Stderr, err)
				continue
			}
			printResult(out, res)
		}
	}
}

func printMenu(w io.Writer) {
	fmt.Fprintln(w, "Commands:")
	for _, c := range command.Commands() {
		fmt.Fprintf(w, "  %s %s\n", tokenStyle.Render(c.Token), c.Short)
	}
	fmt.Fprintf(w, "  %s %s\n", tokenStyle.Render("h"), "Show this menu")
	fmt.Fprintf(w, "  %s %s\n", tokenStyle.Render("q"), "Quit")
}
