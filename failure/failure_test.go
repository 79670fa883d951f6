package failure

import (
	"errors"
	"fmt"
	"testing"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{UnsupportedFileType, "UnsupportedFileType"},
		{StructuralCorruption, "StructuralCorruption"},
		{EncryptedDocument, "EncryptedDocument"},
		{NoExtractableText, "NoExtractableText"},
		{ExtractionEngineFailure, "ExtractionEngineFailure"},
		{Unknown, "Unknown"},
		{Kind(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestSuggestionFor_Distinct(t *testing.T) {
	kinds := []Kind{UnsupportedFileType, StructuralCorruption, EncryptedDocument, NoExtractableText, ExtractionEngineFailure}
	seen := make(map[string]Kind)
	for _, k := range kinds {
		s := SuggestionFor(k)
		if s == "" {
			t.Errorf("SuggestionFor(%s) is empty", k)
		}
		if prev, ok := seen[s]; ok {
			t.Errorf("SuggestionFor(%s) duplicates %s", k, prev)
		}
		seen[s] = k
	}
	if SuggestionFor(Unknown) != "" {
		t.Error("expected empty suggestion for Unknown")
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	cause := errors.New("xref broken")
	err := fmt.Errorf("extract: %w", New(StructuralCorruption, "could not parse", cause))

	kind, ok := KindOf(err)
	if !ok || kind != StructuralCorruption {
		t.Fatalf("KindOf() = %v, %v; want StructuralCorruption, true", kind, ok)
	}
	if !IsKind(err, StructuralCorruption) {
		t.Error("IsKind should match through wrapping")
	}
	if IsKind(err, EncryptedDocument) {
		t.Error("IsKind should not match a different kind")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}

func TestKindOf_PlainError(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("plain errors carry no kind")
	}
}

func TestError_Message(t *testing.T) {
	err := New(NoExtractableText, "nothing found", nil)
	if got, want := err.Error(), "NoExtractableText: nothing found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if err.Suggestion == "" {
		t.Error("New should attach the default suggestion")
	}

	err = Newf(EncryptedDocument, errors.New("bad password"), "open %s", "a.pdf")
	if got, want := err.Error(), "EncryptedDocument: open a.pdf: bad password"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
