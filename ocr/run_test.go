package ocr

import (
	"context"
	"errors"
	"testing"
)

func TestRun_AllProfilesInOrder(t *testing.T) {
	e := &fakeEngine{
		results: map[string]Recognition{
			"single-block":        {Text: "  Cafe\u0301 menu \n"},
			"auto":                {Text: "Cafe menu", Confidence: 70},
			"single-block-legacy": {Text: ""},
		},
		errs: map[string]error{"sparse": errors.New("engine crashed")},
	}

	attempts := Run(context.Background(), e, Image{Path: "x.png"}, DefaultProfiles(), nil)
	if len(attempts) != 4 {
		t.Fatalf("len(attempts) = %d, want 4", len(attempts))
	}
	wantOrder := []string{"single-block", "auto", "sparse", "single-block-legacy"}
	for i, a := range attempts {
		if a.Profile.Name != wantOrder[i] {
			t.Errorf("attempt %d profile = %s, want %s", i, a.Profile.Name, wantOrder[i])
		}
	}
	if len(e.calls) != 4 {
		t.Errorf("engine called %d times, want 4", len(e.calls))
	}

	if got := attempts[0].Recognition.Text; got != "Caf\u00e9 menu" {
		t.Errorf("text not NFC normalized and trimmed: %q", got)
	}
	if attempts[2].OK() {
		t.Error("sparse attempt should have failed")
	}

	ok := Succeeded(attempts)
	if len(ok) != 3 {
		t.Fatalf("len(Succeeded) = %d, want 3", len(ok))
	}
	if ok[1].Recognition.Confidence != 70 {
		t.Errorf("confidence not carried: %v", ok[1].Recognition.Confidence)
	}
	if FirstError(attempts) == nil || FirstError(ok) != nil {
		t.Error("FirstError did not report the failed attempt")
	}
}

func TestRun_CancelledContext(t *testing.T) {
	e := &fakeEngine{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := Run(ctx, e, Image{}, DefaultProfiles(), nil)
	if len(e.calls) != 0 {
		t.Errorf("engine invoked %d times after cancellation", len(e.calls))
	}
	if len(attempts) != len(DefaultProfiles()) {
		t.Fatalf("len(attempts) = %d", len(attempts))
	}
	for _, a := range attempts {
		if !errors.Is(a.Err, context.Canceled) {
			t.Errorf("attempt %s error = %v, want context.Canceled", a.Profile.Name, a.Err)
		}
	}
	if len(Succeeded(attempts)) != 0 {
		t.Error("no attempt should succeed")
	}
}

func TestRun_NoProfiles(t *testing.T) {
	if got := Run(context.Background(), &fakeEngine{}, Image{}, nil, nil); len(got) != 0 {
		t.Errorf("Run with no profiles = %v", got)
	}
}

func TestParseOutputMode(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputMode
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"HOCR", OutputHOCR, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputMode(tt.in)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}
