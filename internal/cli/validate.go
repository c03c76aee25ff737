package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/summa/internal/harness"
	"github.com/roach88/summa/internal/policy"
)

// ValidationError is one problem found in a validated file.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	File   string            `json:"file"`
	Kind   string            `json:"kind"` // "scenario" or "policy"
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// WriteText prints the verdict and every error.
func (r ValidationResult) WriteText(w io.Writer) error {
	if r.Valid {
		_, err := fmt.Fprintf(w, "✓ %s: valid %s\n", r.File, r.Kind)
		return err
	}
	fmt.Fprintf(w, "✗ %s: invalid %s\n", r.File, r.Kind)
	for _, e := range r.Errors {
		if e.Line > 0 {
			fmt.Fprintf(w, "  [%s] line %d: %s\n", e.Code, e.Line, e.Message)
		} else {
			fmt.Fprintf(w, "  [%s] %s\n", e.Code, e.Message)
		}
	}
	return nil
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a scenario or policy file",
		Long: `Validate a scenario (.yaml, .yml) or a policy (.cue) without running it.

Scenarios are parsed strictly (unknown fields are errors) and every method
alias, value literal and interruption kind is checked. Policies are
unified with the embedded #Policy schema.

Exit codes:
  0 - File is valid
  1 - File is invalid
  2 - Command error (missing file, unknown file type)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("file not found: %s", path), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("file not found: %s", path))
	}

	result := ValidationResult{File: path, Valid: true}
	var err error
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		result.Kind = "scenario"
		formatter.VerboseLog("Validating scenario %s", path)
		_, err = harness.LoadScenario(path)
	case ".cue":
		result.Kind = "policy"
		formatter.VerboseLog("Validating policy %s", path)
		_, err = policy.Load(path)
	default:
		_ = formatter.Error(ErrCodeUnsupported, fmt.Sprintf("unsupported file type: %s", path), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("unsupported file type %q (want .yaml, .yml or .cue)", filepath.Ext(path)))
	}

	if err != nil {
		result.Valid = false
		result.Errors = []ValidationError{toValidationError(err)}
	}
	if outErr := formatter.Success(result); outErr != nil {
		return outErr
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%s is not a valid %s", path, result.Kind))
	}
	return nil
}

func toValidationError(err error) ValidationError {
	var cErr *policy.CompileError
	if errors.As(err, &cErr) {
		ve := ValidationError{Field: cErr.Field, Message: cErr.Message, Code: ErrCodeInvalid}
		if cErr.Pos.IsValid() {
			ve.Line = cErr.Pos.Line()
		}
		return ve
	}
	return ValidationError{Message: err.Error(), Code: ErrCodeInvalid}
}
