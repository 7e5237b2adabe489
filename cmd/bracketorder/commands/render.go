package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/bracketorder/internal/config"
	"github.com/Sumatoshi-tech/bracketorder/internal/observability"
	"github.com/Sumatoshi-tech/bracketorder/internal/render"
)

const (
	renderOutputFlag = "output"
	renderTitleFlag  = "title"
	renderFilePerm   = 0o644
)

// NewRenderCommand creates the render subcommand.
func NewRenderCommand() *cobra.Command {
	var (
		outputPath string
		title      string
	)

	cmd := &cobra.Command{
		Use:   "render <rounds-file>",
		Short: "Render the reconstructed bracket",
		Long: `Render the ranking, every round's matches and the links between them.

Formats: text (tables), json, yaml, plot (HTML bracket chart).`,
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

			var out io.Writer = sess.out

			if outputPath != "" {
				file, createErr := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, renderFilePerm)
				if createErr != nil {
					return fmt.Errorf("create output: %w", createErr)
				}
				defer file.Close()

				out = file
			}

			err = render.Write(out, sess.format(cmd), result, render.Options{
				Color: sess.color() && outputPath == "",
				Title: title,
			})
			if err != nil {
				return err
			}

			if outputPath != "" {
				sess.logger.Info("bracket rendered", "path", outputPath)
			}

			return nil
		},
	}

	cmd.Flags().StringP(flagFormat, "f", config.DefaultOutputFormat, "Output format: text, json, yaml, plot")
	cmd.Flags().Bool(flagSort, config.DefaultSortMatches, "Sort matches within rounds before reconstructing")
	cmd.Flags().StringVarP(&outputPath, renderOutputFlag, "o", "", "write to this file instead of stdout")
	cmd.Flags().StringVar(&title, renderTitleFlag, "", "chart title for the plot format")

	return cmd
}
