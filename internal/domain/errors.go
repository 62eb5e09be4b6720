package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrLoad signals a missing, corrupt or inconsistent artifact. Startup-fatal.
	ErrLoad = errors.New("artifact load failed")
	// ErrUnknownUser signals a user id absent from the loaded model.
	ErrUnknownUser = errors.New("unknown user")
	// ErrScoring signals a model evaluation failure.
	ErrScoring = errors.New("scoring failed")
	// ErrMetadataMissing signals an item id without a metadata row.
	ErrMetadataMissing = errors.New("item metadata missing")
	// ErrInvalidRequest signals bad request parameters.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotImplemented signals a model family that was not configured.
	ErrNotImplemented = errors.New("not implemented")
)

// LoadError wraps ErrLoad with the offending file and the failed part.
type LoadError struct {
	Path string
	Part string
	Err  error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrLoad.Error(), e.Path)
	if e.Part != "" {
		msg += " (" + e.Part + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the cause to errors.Is/As.
func (e *LoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLoad}
	}
	return []error{ErrLoad, e.Err}
}

// NewLoadError creates a load error for path. part names the sub-object that failed.
func NewLoadError(path, part string, err error) error {
	return &LoadError{Path: path, Part: part, Err: err}
}

// UnknownUserError wraps ErrUnknownUser with the requested user id.
type UnknownUserError struct {
	UserID int
}

func (e *UnknownUserError) Error() string {
	return fmt.Sprintf("%s: user %d does not exist in the dataset", ErrUnknownUser.Error(), e.UserID)
}

func (e *UnknownUserError) Unwrap() error { return ErrUnknownUser }

// NewUnknownUser creates an unknown user error.
func NewUnknownUser(userID int) error {
	return &UnknownUserError{UserID: userID}
}

// ScoringError wraps ErrScoring with the diagnostic context of a failed request.
type ScoringError struct {
	UserID     int
	Candidates int
	Err        error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("%s: user %d, %d candidates: %v", ErrScoring.Error(), e.UserID, e.Candidates, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is/As.
func (e *ScoringError) Unwrap() []error { return []error{ErrScoring, e.Err} }

// NewScoringError creates a scoring error.
func NewScoringError(userID, candidates int, err error) error {
	return &ScoringError{UserID: userID, Candidates: candidates, Err: err}
}

// MetadataMissingError wraps ErrMetadataMissing with the item id.
type MetadataMissingError struct {
	ItemID int
}

func (e *MetadataMissingError) Error() string {
	return fmt.Sprintf("%s: item %d", ErrMetadataMissing.Error(), e.ItemID)
}

func (e *MetadataMissingError) Unwrap() error { return ErrMetadataMissing }

// NewMetadataMissing creates a metadata missing error.
func NewMetadataMissing(itemID int) error {
	return &MetadataMissingError{ItemID: itemID}
}
