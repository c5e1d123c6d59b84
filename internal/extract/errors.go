package extract

import (
	"errors"
	"fmt"

	"guardia/pkg/models"
)

// Common extraction errors
var (
	// ErrNoSchedules is returned when a document yields no dated rows at all.
	ErrNoSchedules = errors.New("document contains no duty schedules")

	// ErrNoTable is returned when the expected table cannot be located on any page.
	ErrNoTable = errors.New("duty table not found")

	// ErrUnknownRegion is returned when the registry has no strategy for a region.
	ErrUnknownRegion = errors.New("no parsing strategy for region")
)

// ExtractError wraps a document-level extraction failure with the region and step.
type ExtractError struct {
	// Op is the step that failed (e.g., "CapitalStrategy.Extract").
	Op string

	// Region is the region whose document was being parsed.
	Region models.RegionID

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ExtractError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("extract %s: %s failed: %s: %v", e.Region, e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("extract %s: %s failed: %v", e.Region, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExtractError) Unwrap() error {
	return e.Err
}

// Is matches against the underlying error.
func (e *ExtractError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapExtractError wraps err as an ExtractError unless it already is one.
func WrapExtractError(op string, region models.RegionID, err error, details string) error {
	if err == nil {
		return nil
	}

	var extractErr *ExtractError
	if errors.As(err, &extractErr) {
		return err
	}

	return &ExtractError{Op: op, Region: region, Err: err, Details: details}
}
