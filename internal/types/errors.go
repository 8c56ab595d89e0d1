package types

import (
	"errors"
	"strings"
)

var (
	// ErrMissingData marks a statement that is empty or lacks a field a
	// derived metric needs.
	ErrMissingData = errors.New("missing data")
	// ErrUndefined marks a computation with no defined result: division by
	// zero, log of a non-positive value, an IRR with no root.
	ErrUndefined = errors.New("computation undefined")
	// ErrInsufficientData is returned when a series has fewer points than a
	// method needs.
	ErrInsufficientData = errors.New("insufficient data points")
	ErrNotFound         = errors.New("not found")
)

type FailureKind string

const (
	KindMissingData FailureKind = "missing_data"
	KindUndefined   FailureKind = "undefined"
	KindBatchItem   FailureKind = "batch_item"
)

// KindOf classifies err into the failure taxonomy.
func KindOf(err error) FailureKind {
	switch {
	case errors.Is(err, ErrMissingData), errors.Is(err, ErrInsufficientData), errors.Is(err, ErrNotFound):
		return KindMissingData
	case errors.Is(err, ErrUndefined):
		return KindUndefined
	}
	return KindBatchItem
}

// Failure is one contained fault inside a company's analysis. Soft failures
// were replaced by a documented default and do not degrade the status.
type Failure struct {
	Stage   string      `json:"stage"`
	Field   string      `json:"field,omitempty"`
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
	Soft    bool        `json:"soft,omitempty"`
}

func (f Failure) String() string {
	var b strings.Builder
	b.WriteString(f.Stage)
	if f.Field != "" {
		b.WriteString(" ")
		b.WriteString(f.Field)
	}
	b.WriteString(": ")
	b.WriteString(f.Message)
	return b.String()
}

// JoinFailures renders the hard failures as a single human readable message.
func JoinFailures(fs []Failure) string {
	parts := make([]string, 0, len(fs))
	for _, f := range fs {
		if !f.Soft {
			parts = append(parts, f.String())
		}
	}
	return strings.Join(parts, "; ")
}
