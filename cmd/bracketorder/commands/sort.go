package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bracketorder/internal/observability"
	"github.com/Sumatoshi-tech/bracketorder/internal/roundfile"
	"github.com/Sumatoshi-tech/bracketorder/pkg/bracket"
)

const sortToFlag = "to"

// NewSortCommand creates the sort subcommand.
func NewSortCommand() *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "sort <rounds-file>",
		Short: "Reorder matches within rounds by their earliest entrant",
		Long: `Reorder the matches of every round by the earliest position any of their
entrants held in the round before, and print the rounds again.

Revival entrants and entrants new to the bracket do not move a match forward.
The output keeps the input format unless --to is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer sess.close()

			rounds, err := sess.loadRounds(args[0])
			if err != nil {
				return err
			}

			format := roundfile.Format(to)
			if format == "" {
				format = inputFormat(args[0])
			}

			return roundfile.Encode(sess.out, bracket.SortMatches(rounds), format)
		},
	}

	cmd.Flags().StringVar(&to, sortToFlag, "", "output format: json or yaml")

	return cmd
}

// inputFormat guesses the format of a round file from its name and, when
// that is inconclusive, its content. Standard input defaults to YAML.
func inputFormat(path string) roundfile.Format {
	if path == stdinPath {
		return roundfile.FormatYAML
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return roundfile.DetectFormat(path, nil)
	}

	return roundfile.DetectFormat(path, data)
}
