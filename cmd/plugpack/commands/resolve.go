package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.trai.ch/plugpack/internal/app"
	"go.trai.ch/plugpack/internal/core/domain"
	"go.trai.ch/plugpack/internal/ui/output"
	"go.trai.ch/plugpack/internal/ui/style"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

func (c *CLI) newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "List the dependencies that would be bundled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			format = strings.ToLower(format)
			if format != "text" && format != "yaml" {
				return zerr.With(zerr.New(domain.ErrUnknownFormat.Error()), "format", format)
			}

			report, err := c.app.Resolve(cmd.Context())
			if err != nil {
				return err
			}

			if format == "yaml" {
				return writeYAML(cmd.OutOrStdout(), report)
			}
			writeText(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", "text", "Output format: text or yaml")
	return cmd
}

func writeYAML(w io.Writer, report *app.ResolveReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return zerr.Wrap(err, "failed to encode resolve report")
	}
	return enc.Close()
}

func writeText(w io.Writer, report *app.ResolveReport) {
	out := output.New(w)
	paint := func(s string, c termenv.Color) termenv.Style {
		return out.String(s).Foreground(c)
	}

	_, _ = fmt.Fprintln(w, out.String(report.Project).Bold().Foreground(out.Color(string(style.Iris))))
	for _, dep := range report.Resolved {
		_, _ = fmt.Fprintf(w, "  %s %s %s\n",
			paint(style.Check, out.Color(string(style.Green))),
			dep.PackageName,
			paint(dep.FilePath, out.Color(string(style.Slate))),
		)
	}
	for _, skipped := range report.Skipped {
		_, _ = fmt.Fprintf(w, "  %s %s %s %s\n",
			paint(style.Skip, out.Color(string(style.Yellow))),
			skipped.Declaration.Name,
			skipped.Declaration.VersionConstraint,
			paint("("+string(skipped.Reason)+")", out.Color(string(style.Slate))),
		)
	}
}
