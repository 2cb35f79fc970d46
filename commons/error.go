package commons

import (
	"errors"
	"fmt"
)

// ValidationError contains cache key or path set validation error information
type ValidationError struct {
	Reason string
}

// NewValidationError creates an error for key or path set validation failure
func NewValidationError(reason string) error {
	return &ValidationError{
		Reason: reason,
	}
}

// Error returns error message
func (err *ValidationError) Error() string {
	return fmt.Sprintf("validation error - %s", err.Reason)
}

// Is tests type of error
func (err *ValidationError) Is(other error) bool {
	_, ok := other.(*ValidationError)
	return ok
}

// ToString stringifies the object
func (err *ValidationError) ToString() string {
	return "<ValidationError>"
}

// IsValidationError evaluates if the given error is validation error
func IsValidationError(err error) bool {
	return errors.Is(err, &ValidationError{})
}

// CapacityError contains archive size limit error information
type CapacityError struct {
	ArchiveSize    int64
	ArchiveSizeMax int64
}

// NewCapacityError creates an error for archive size limit violation
func NewCapacityError(archiveSize int64, archiveSizeMax int64) error {
	return &CapacityError{
		ArchiveSize:    archiveSize,
		ArchiveSizeMax: archiveSizeMax,
	}
}

// Error returns error message
func (err *CapacityError) Error() string {
	return fmt.Sprintf("archive size %d exceeds the size limit %d", err.ArchiveSize, err.ArchiveSizeMax)
}

// Is tests type of error
func (err *CapacityError) Is(other error) bool {
	_, ok := other.(*CapacityError)
	return ok
}

// ToString stringifies the object
func (err *CapacityError) ToString() string {
	return "<CapacityError>"
}

// IsCapacityError evaluates if the given error is capacity error
func IsCapacityError(err error) bool {
	return errors.Is(err, &CapacityError{})
}

// PathResolutionError contains path resolution error information
type PathResolutionError struct {
	Paths []string
}

// NewPathResolutionError creates an error for a path set that resolved to nothing
func NewPathResolutionError(paths []string) error {
	return &PathResolutionError{
		Paths: paths,
	}
}

// Error returns error message
func (err *PathResolutionError) Error() string {
	return fmt.Sprintf("no existing paths resolved from %v", err.Paths)
}

// Is tests type of error
func (err *PathResolutionError) Is(other error) bool {
	_, ok := other.(*PathResolutionError)
	return ok
}

// ToString stringifies the object
func (err *PathResolutionError) ToString() string {
	return "<PathResolutionError>"
}

// IsPathResolutionError evaluates if the given error is path resolution error
func IsPathResolutionError(err error) bool {
	return errors.Is(err, &PathResolutionError{})
}
