package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bracketorder/internal/observability"
	"github.com/Sumatoshi-tech/bracketorder/internal/render"
)

// NewCompareCommand creates the compare subcommand.
func NewCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <rounds-file> <entrant-a> <entrant-b>",
		Short: "Tell which of two entrants is placed first",
		Args:  cobra.ExactArgs(3),
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

			cmp, err := sess.svc.Compare(contextOf(cmd), rounds, args[1], args[2], sess.options(cmd))
			if err != nil {
				return err
			}

			return writeValue(sess.out, sess.format(cmd), cmp, func() string {
				var out strings.Builder

				_ = render.Comparison(&out, cmp.A, cmp.B, cmp.Order)

				return strings.TrimSuffix(out.String(), "\n")
			})
		},
	}

	addResultFlags(cmd)

	return cmd
}
