// Package failure defines the typed failures returned by scanlift extractions.
//
// Every pipeline-level failure is a *Error carrying a Kind, a human readable
// message and a remediation suggestion the caller can show to the person who
// uploaded the document. Per-profile recognition errors never surface here.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies an extraction failure.
type Kind int

const (
	// Unknown is the zero Kind and is never produced by scanlift itself.
	Unknown Kind = iota
	// UnsupportedFileType indicates the input is neither a PDF nor a supported image.
	UnsupportedFileType
	// StructuralCorruption indicates a PDF whose cross-reference data could not be parsed or repaired.
	StructuralCorruption
	// EncryptedDocument indicates a password protected PDF.
	EncryptedDocument
	// NoExtractableText indicates the document parsed but yielded no usable text.
	NoExtractableText
	// ExtractionEngineFailure indicates the recognition engine failed for every profile.
	ExtractionEngineFailure
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case UnsupportedFileType:
		return "UnsupportedFileType"
	case StructuralCorruption:
		return "StructuralCorruption"
	case EncryptedDocument:
		return "EncryptedDocument"
	case NoExtractableText:
		return "NoExtractableText"
	case ExtractionEngineFailure:
		return "ExtractionEngineFailure"
	default:
		return "Unknown"
	}
}

// SuggestionFor returns the default remediation suggestion for a kind.
func SuggestionFor(k Kind) string {
	switch k {
	case UnsupportedFileType:
		return "Upload a PDF, PNG or JPEG file."
	case StructuralCorruption:
		return "The PDF structure is damaged. Open it in a PDF viewer and re-save or re-export it, then upload it again."
	case EncryptedDocument:
		return "The PDF is password protected. Remove the password and upload it again."
	case NoExtractableText:
		return "No readable text was found. If this is a scanned or image-only PDF, convert its pages to PNG or JPEG images and upload those for OCR."
	case ExtractionEngineFailure:
		return "Text recognition is currently unavailable. Try again later or contact an administrator."
	default:
		return ""
	}
}

// Error is a typed extraction failure.
type Error struct {
	Kind       Kind
	Message    string
	Suggestion string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a failure of the given kind with the kind's default suggestion.
func New(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:       kind,
		Message:    message,
		Suggestion: SuggestionFor(kind),
		Cause:      cause,
	}
}

// Newf is like New but formats the message.
func Newf(kind Kind, cause error, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...), cause)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return Unknown, false
}

// IsKind reports whether err carries a failure of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
