package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"anon-bd/anonrun/pkg/cli"
	"anon-bd/anonrun/pkg/failure"
	"anon-bd/anonrun/pkg/job"
	"anon-bd/anonrun/pkg/manifest"
)

var validateFlags struct {
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate <manifest>",
	Short: "Check a manifest without running the engine",
	Long: `Validate a manifest and everything it references.

The input header is checked against the declared attributes, every hierarchy
is loaded and the privacy models are assembled. The engine is not called and
no output is written. Every manifest problem is reported at once.

Examples:
  # Human-readable report
  anonrun validate job.yaml

  # Machine-readable report for CI
  anonrun validate job.yaml --format json`,
	Args: exactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.format, "format", "f", "text", "output format (text, json)")
}

// validationReport is the result of anonrun validate.
type validationReport struct {
	Manifest   string            `json:"manifest"`
	Valid      bool              `json:"valid"`
	ErrorKind  string            `json:"error_kind,omitempty"`
	Errors     []reportError     `json:"errors,omitempty"`
	Rows       int               `json:"rows,omitempty"`
	Attributes []reportAttribute `json:"attributes,omitempty"`
	Models     []string          `json:"models,omitempty"`
}

type reportError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

type reportAttribute struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	DataType  string `json:"data_type,omitempty"`
	Hierarchy string `json:"hierarchy,omitempty"`
	Levels    int    `json:"levels,omitempty"`
}

func (r *validationReport) WriteText(w io.Writer) error {
	if !r.Valid {
		fmt.Fprintf(w, "✗ %s is invalid\n", r.Manifest)
		for _, e := range r.Errors {
			switch {
			case e.Field != "" && e.Line > 0:
				fmt.Fprintf(w, "  - %s: %s (line %d)\n", e.Field, e.Message, e.Line)
			case e.Field != "":
				fmt.Fprintf(w, "  - %s: %s\n", e.Field, e.Message)
			default:
				fmt.Fprintf(w, "  - %s\n", e.Message)
			}
		}
		return nil
	}

	fmt.Fprintf(w, "✓ %s is valid (%d rows)\n", r.Manifest, r.Rows)
	fmt.Fprintln(w, "\nAttributes:")
	for _, a := range r.Attributes {
		line := fmt.Sprintf("  %-20s %s", a.Name, a.Role)
		if a.DataType != "" {
			line += " " + a.DataType
		}
		if a.Hierarchy != "" {
			line += fmt.Sprintf(" (hierarchy %s, %d levels)", a.Hierarchy, a.Levels)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, "\nPrivacy models:")
	for _, m := range r.Models {
		fmt.Fprintf(w, "  %s\n", m)
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(validateFlags.format)
	if err != nil {
		return err
	}
	if format == cli.FormatCSV {
		return cli.NewUsageError("validate supports text and json output")
	}

	a, err := newApp(appOptions{engine: true})
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, verr := a.runner().Validate(contextOf(cmd), args[0])
	report := newValidationReport(args[0], cfg, verr)

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if verr != nil {
		// The report already lists the problems.
		return &reportedError{err: verr}
	}
	return nil
}

func newValidationReport(path string, cfg *job.Config, err error) *validationReport {
	report := &validationReport{Manifest: path, Valid: err == nil}

	if err != nil {
		report.ErrorKind = string(failure.KindOf(err))
		var verr manifest.ValidationError
		if errors.As(err, &verr) {
			for _, fe := range verr.Errors {
				report.Errors = append(report.Errors, reportError{Field: fe.Field, Message: fe.Message, Line: fe.Line})
			}
		} else {
			report.Errors = []reportError{{Message: err.Error()}}
		}
		return report
	}

	report.Rows = len(cfg.Table.Rows)
	report.Models = cfg.Privacy.Summary()
	for _, spec := range cfg.Manifest.Attributes {
		report.Attributes = append(report.Attributes, describeAttribute(spec, cfg))
	}
	return report
}

func describeAttribute(spec manifest.AttributeSpec, cfg *job.Config) reportAttribute {
	def := cfg.Definition
	attr := reportAttribute{
		Name:      spec.Name,
		Role:      def.AttributeType(spec.Name).String(),
		Hierarchy: spec.HierarchyPath,
	}
	if dt, declared := def.DataType(spec.Name); declared {
		attr.DataType = dt.String()
	}
	if h, ok := cfg.Hierarchies.Get(spec.Name); ok {
		attr.Levels = h.Depth()
	}
	return attr
}

// reportedError carries a failure's exit code after its message was already
// printed in a report.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return "manifest validation failed" }
func (e *reportedError) Unwrap() error { return e.err }
