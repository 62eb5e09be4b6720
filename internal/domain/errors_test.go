package domain

import (
	"errors"
	"io"
	"testing"
)

func TestLoadError_UnwrapsSentinelAndCause(t *testing.T) {
	err := NewLoadError("model.json", "user_embeddings", io.ErrUnexpectedEOF)

	if !errors.Is(err, ErrLoad) {
		t.Error("expected errors.Is(err, ErrLoad)")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("expected errors.Is(err, io.ErrUnexpectedEOF)")
	}

	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatal("expected errors.As to *LoadError")
	}
	if le.Part != "user_embeddings" {
		t.Errorf("expected part user_embeddings, got %q", le.Part)
	}

	want := "artifact load failed: model.json (user_embeddings): unexpected EOF"
	if err.Error() != want {
		t.Errorf("unexpected message:\ngot:  %q\nwant: %q", err.Error(), want)
	}
}

func TestLoadError_NoCause(t *testing.T) {
	err := NewLoadError("links.csv", "", nil)
	if !errors.Is(err, ErrLoad) {
		t.Error("expected errors.Is(err, ErrLoad)")
	}
	if err.Error() != "artifact load failed: links.csv" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestUnknownUserError(t *testing.T) {
	err := NewUnknownUser(42)
	if !errors.Is(err, ErrUnknownUser) {
		t.Error("expected errors.Is(err, ErrUnknownUser)")
	}
	var ue *UnknownUserError
	if !errors.As(err, &ue) || ue.UserID != 42 {
		t.Errorf("expected UnknownUserError{42}, got %v", err)
	}
}

func TestScoringError(t *testing.T) {
	cause := errors.New("NaN output")
	err := NewScoringError(7, 120, cause)

	if !errors.Is(err, ErrScoring) {
		t.Error("expected errors.Is(err, ErrScoring)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is(err, cause)")
	}
	if errors.Is(err, ErrUnknownUser) {
		t.Error("scoring error must not match ErrUnknownUser")
	}

	want := "scoring failed: user 7, 120 candidates: NaN output"
	if err.Error() != want {
		t.Errorf("unexpected message:\ngot:  %q\nwant: %q", err.Error(), want)
	}
}

func TestMetadataMissingError(t *testing.T) {
	err := NewMetadataMissing(99)
	if !errors.Is(err, ErrMetadataMissing) {
		t.Error("expected errors.Is(err, ErrMetadataMissing)")
	}
	if err.Error() != "item metadata missing: item 99" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestModelFamily_IsValid(t *testing.T) {
	tests := []struct {
		f    ModelFamily
		want bool
	}{
		{FamilyFactorization, true},
		{FamilyValue, true},
		{"", false},
		{"dqn", false},
	}
	for _, tc := range tests {
		if got := tc.f.IsValid(); got != tc.want {
			t.Errorf("ModelFamily(%q).IsValid() = %v, want %v", tc.f, got, tc.want)
		}
	}
}
