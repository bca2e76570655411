package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// StoreMissing indicates no scan has been run for the project yet
	StoreMissing ErrorCode = "STORE_MISSING"
	// StoreCorrupt indicates a store record or artifact could not be decoded
	StoreCorrupt ErrorCode = "STORE_CORRUPT"
	// ComponentNotFound indicates no component matches the given ID or name
	ComponentNotFound ErrorCode = "COMPONENT_NOT_FOUND"
	// ConnectionNotFound indicates no connection matches the given ID
	ConnectionNotFound ErrorCode = "CONNECTION_NOT_FOUND"
	// SnapshotNotFound indicates the snapshot ID is unknown
	SnapshotNotFound ErrorCode = "SNAPSHOT_NOT_FOUND"
	// InvalidRuleFile indicates a custom rule file failed to parse or validate
	InvalidRuleFile ErrorCode = "INVALID_RULE_FILE"
	// InvalidSignatureFile indicates a signature override file failed to load
	InvalidSignatureFile ErrorCode = "INVALID_SIGNATURE_FILE"
	// InvalidConfig indicates configuration failed validation
	InvalidConfig ErrorCode = "INVALID_CONFIG"
	// InvalidArgument indicates a bad query parameter
	InvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ScanFailed indicates a scan could not complete
	ScanFailed ErrorCode = "SCAN_FAILED"
	// Timeout indicates an operation was cancelled or timed out
	Timeout ErrorCode = "TIMEOUT"
	// RateLimited indicates too many concurrent requests
	RateLimited ErrorCode = "RATE_LIMITED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
	// EditFile suggests editing a file
	EditFile FixActionType = "edit-file"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	Path        string        `json:"path,omitempty"`
}

// ArchError is an error with a stable code and suggested fixes
type ArchError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// New creates an ArchError with the default fixes for its code
func New(code ErrorCode, message string, cause error) *ArchError {
	return &ArchError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf is New with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *ArchError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *ArchError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ArchError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *ArchError) WithDetails(details interface{}) *ArchError {
	e.Details = details
	return e
}

// WithFix appends a suggested fix
func (e *ArchError) WithFix(fix FixAction) *ArchError {
	e.SuggestedFixes = append(e.SuggestedFixes, fix)
	return e
}

// CodeOf returns the code of the first ArchError in err's chain, or
// InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var ae *ArchError
	if stderrors.As(err, &ae) {
		return ae.Code
	}
	return InternalError
}

// Is reports whether err carries the given code
func Is(err error, code ErrorCode) bool {
	var ae *ArchError
	return stderrors.As(err, &ae) && ae.Code == code
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	StoreMissing: {
		{
			Type:        RunCommand,
			Command:     "archgraph scan",
			Safe:        true,
			Description: "Scan the project to create the store",
		},
	},
	StoreCorrupt: {
		{
			Type:        RunCommand,
			Command:     "archgraph scan --full",
			Safe:        true,
			Description: "Rescan the project to rewrite every record",
		},
	},
	InvalidConfig: {
		{
			Type:        EditFile,
			Path:        ".archgraph/config.json",
			Description: "Fix the reported configuration keys",
		},
	},
	InvalidRuleFile: {
		{
			Type:        RunCommand,
			Command:     "archgraph rules --validate",
			Safe:        true,
			Description: "Validate the rule file and print every problem",
		},
	},
	RateLimited: {
		{
			Type:        RunCommand,
			Command:     "sleep 2 && archgraph ${retry_command}",
			Safe:        true,
			Description: "Retry after brief delay",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return append([]FixAction(nil), fixes...)
	}
	return nil
}
