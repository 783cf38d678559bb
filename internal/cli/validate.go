package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bayesq/internal/compiler"
	"github.com/roach88/bayesq/internal/ir"
)

// Schema check error codes, used when validate is given a dataset.
const (
	ErrCodeSchemaColumn = "E121" // column not in the dataset
	ErrCodeSchemaType   = "E122" // value or operator does not fit the column kind
	ErrCodeSchemaOther  = "E123" // any other binding failure
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Source DataSource
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                       `json:"valid"`
	Queries int                        `json:"queries"`
	Errors  []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <queries-dir>",
		Short: "Validate query files without evaluating them",
		Long: `Validate CUE query files: syntax, query kinds, predicate counts,
operators, and value shapes.

With --data or --db/--table, every query is also bound against the
dataset schema, catching unknown columns and type mismatches.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	opts.Source.addFlags(cmd)

	return cmd
}

func runValidate(opts *ValidateOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loaded, loadErrors := LoadQueries(dir, LoadModeCollectAll)
	if loaded == nil {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, dir)

	var validationErrors []compiler.ValidationError
	for _, err := range loadErrors {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			validationErrors = append(validationErrors, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    lineOf(loadErr),
			})
		}
	}

	structural := compiler.Validate(loaded.Queries)
	validationErrors = append(validationErrors, structural...)

	// Schema binding only makes sense for structurally valid queries.
	if !opts.Source.empty() && len(structural) == 0 {
		ds, err := opts.Source.load(commandContext(cmd), opts.settings())
		if err != nil {
			return outputValidateError(formatter, ErrCodeDatasetLoad, err.Error())
		}
		for _, rq := range loaded.Queries {
			formatter.VerboseLog("Binding query: %s", rq.Name)
			if _, err := rq.Bind(ds.Schema()); err != nil {
				validationErrors = append(validationErrors, compiler.ValidationError{
					Field:   "query." + rq.Name,
					Message: err.Error(),
					Code:    schemaCode(err),
				})
			}
		}
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, len(loaded.Queries), validationErrors)
	}

	return outputValidateSuccess(formatter, len(loaded.Queries))
}

func schemaCode(err error) string {
	switch ir.CodeOf(err) {
	case ir.ErrCodeUnknownColumn:
		return ErrCodeSchemaColumn
	case ir.ErrCodeTypeMismatch, ir.ErrCodeInvalidOperator:
		return ErrCodeSchemaType
	default:
		return ErrCodeSchemaOther
	}
}

func lineOf(e *LoadError) int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, queries int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Queries: queries})
	}

	fmt.Fprintf(formatter.Writer, "✓ All %d queries valid\n", queries)
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Load errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, queries int, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:   false,
				Queries: queries,
				Errors:  errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
			TraceID: formatter.TraceID,
		}
		if err := formatter.encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
