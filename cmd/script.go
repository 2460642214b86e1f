package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Tiliavir/climesync/internal/command"
	"github.com/Tiliavir/climesync/internal/field"
	"github.com/Tiliavir/climesync/internal/model"
)

// scriptedCommand exposes one command table entry as a subcommand.
func scriptedCommand(c command.Command) *cobra.Command {
	use := c.Name
	if usage := c.Grammar.Usage(); usage != "" {
		use += " " + usage
	}
	sub := &cobra.Command{
		Use:   use,
		Short: c.Short,
		RunE: func(cmd *cobra.Command, positional []string) error {
			args, err := bindArgs(cmd, c.Grammar, positional)
			if err != nil {
				return err
			}
			res, err := command.Invoke(cmd.Context(), cc, c.Name, args)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	for _, p := range c.Grammar.Flags {
		switch {
		case p.Switch:
			sub.Flags().Bool(p.Flag(), false, p.Usage)
		case p.Kind == field.List:
			sub.Flags().StringArray(p.Flag(), nil, p.Usage)
		default:
			sub.Flags().String(p.Flag(), "", p.Usage)
		}
	}
	return sub
}

// bindArgs binds positional arguments and the flags set on cmd.
func bindArgs(cmd *cobra.Command, g command.Grammar, positional []string) (model.Record, error) {
	names := make(map[string]string, len(g.Flags))
	for _, p := range g.Flags {
		names[p.Flag()] = p.Name
	}

	flags := map[string][]string{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		name, ok := names[f.Name]
		if !ok {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			flags[name] = sv.GetSlice()
			return
		}
		flags[name] = []string{strings.TrimSpace(f.Value.String())}
	})
	return g.Bind(positional, flags)
}
