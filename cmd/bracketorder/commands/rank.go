package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bracketorder/internal/observability"
	"github.com/Sumatoshi-tech/bracketorder/internal/render"
)

// RankedEntrant is one row of the rank command output.
type RankedEntrant struct {
	Rank    int    `json:"rank"    yaml:"rank"`
	Entrant string `json:"entrant" yaml:"entrant"`
}

// NewRankCommand creates the rank subcommand.
func NewRankCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank <rounds-file>",
		Short: "Print every entrant in bracket order",
		Long: `Print every entrant in bracket order. Rank 1 is the entrant placed first.

The rounds file is JSON or YAML; "-" reads standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer sess.close()

			result, err := sess.reconstruct(cmd, args[0])
			if err != nil {
				return err
			}

			rows := make([]RankedEntrant, 0, len(result.Order))
			for i, id := range result.Order {
				rows = append(rows, RankedEntrant{Rank: i + 1, Entrant: id})
			}

			return writeValue(sess.out, sess.format(cmd), rows, func() string {
				return render.Ranking(result)
			})
		},
	}

	addResultFlags(cmd)

	return cmd
}

// NewPairsCommand creates the pairs subcommand.
func NewPairsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pairs <rounds-file>",
		Short: "Print which match feeds which",
		Long: `Print the advancement links of the bracket in breadth-first order.

Matches are named r<round>m<match>, both counted from zero.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer sess.close()

			result, err := sess.reconstruct(cmd, args[0])
			if err != nil {
				return err
			}

			return writeValue(sess.out, sess.format(cmd), result.Links, func() string {
				return render.Pairs(result)
			})
		},
	}

	addResultFlags(cmd)

	return cmd
}
