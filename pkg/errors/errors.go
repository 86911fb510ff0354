// Package errors provides the error types used across the cigarscout system.
// These errors enable programmatic error checking and keep failure handling
// explicit: per-listing extraction problems are recorded as data on the
// extraction result, while the errors here cover the boundaries around it
// (fetching, parsing inputs, validating configuration, reconciling records).
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the cigarscout system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrFetchFailed indicates that a page could not be retrieved
	ErrFetchFailed = errors.New("fetch failed")

	// ErrBlocked indicates a permanent block (403, anti-bot) that must not be retried
	ErrBlocked = errors.New("request blocked")

	// ErrRateLimited indicates that the remote site rate limit was exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrOrphan indicates a listing whose cigar_id is unknown to the master catalog
	ErrOrphan = errors.New("orphaned listing")

	// ErrConfiguration indicates a fatal configuration problem; runs must abort
	ErrConfiguration = errors.New("configuration error")

	// ErrReadOnly indicates an attempt to modify a read-only resource
	ErrReadOnly = errors.New("read only")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a value outside its plausible bounds or an
// otherwise malformed field. Out-of-range values are rejected, never clamped.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// FetchError represents a failure to retrieve a page from a retailer.
// Transient reports temporary conditions (timeout, 429, 5xx) that callers
// may retry with backoff; permanent blocks (403, anti-bot interstitials)
// are surfaced with Transient=false and must not be auto-retried.
type FetchError struct {
	URL        string
	StatusCode int
	Transient  bool
	Err        error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s failed", e.URL)
}

// Unwrap returns the underlying error
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrFetchFailed:
		return true
	case ErrBlocked:
		return !e.Transient
	case ErrRateLimited:
		return e.StatusCode == 429
	}
	return false
}

// NewFetchError creates a new FetchError
func NewFetchError(url string, statusCode int, transient bool, err error) *FetchError {
	return &FetchError{URL: url, StatusCode: statusCode, Transient: transient, Err: err}
}

// ParseError indicates that no extraction strategy produced any signal
// from a document (as opposed to ambiguous signals, which are recorded
// as issues on the extraction result).
type ParseError struct {
	URL     string
	Region  string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	msg := "parse " + e.URL
	if e.Region != "" {
		msg += fmt.Sprintf(" (region %s)", e.Region)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(url, region, message string, err error) *ParseError {
	return &ParseError{URL: url, Region: region, Message: message, Err: err}
}

// OrphanError represents a listing whose cigar_id does not exist in the
// master catalog. Reconciliation marks the listing orphaned and moves on;
// this error type exists for callers that need to report orphans upward.
type OrphanError struct {
	Retailer string
	CigarID  string
}

// Error implements the error interface
func (e *OrphanError) Error() string {
	return fmt.Sprintf("listing %s/%s has no master catalog entry", e.Retailer, e.CigarID)
}

// Is implements errors.Is support
func (e *OrphanError) Is(target error) bool {
	return target == ErrOrphan
}

// NewOrphanError creates a new OrphanError
func NewOrphanError(retailer, cigarID string) *OrphanError {
	return &OrphanError{Retailer: retailer, CigarID: cigarID}
}

// ConfigError represents a fatal configuration problem: a missing or
// malformed master catalog or retailer profile. A run must abort on it
// before touching any listing, since syncing against a broken catalog
// would silently corrupt descriptive fields.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config error in %s: %s: %v", e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("config error in %s: %s", e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// IOError represents file system operation failures
type IOError struct {
	Operation string // read, write, create, delete
	Path      string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Err: err}
}

// Helper functions for error checking

// IsNotFound checks if an error indicates a resource was not found
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation failure
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsFetchError checks if an error came from the fetch boundary
func IsFetchError(err error) bool {
	return errors.Is(err, ErrFetchFailed)
}

// IsBlocked checks if an error is a permanent block that must not be retried
func IsBlocked(err error) bool {
	return errors.Is(err, ErrBlocked)
}

// IsTransient reports whether a fetch failure may be retried with backoff.
func IsTransient(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Transient
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited)
}

// IsRateLimited checks if an error indicates rate limiting
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsTimeout checks if an error indicates a timeout
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsOrphan checks if an error indicates an orphaned listing
func IsOrphan(err error) bool {
	return errors.Is(err, ErrOrphan)
}

// IsConfiguration checks if an error is fatal to the whole run
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// Wrap wraps an error with a message
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}
