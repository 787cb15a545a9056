package verification

import (
	"errors"
	"fmt"
)

var (
	// ErrDetectionBackend marks a failed face detector call.
	ErrDetectionBackend = errors.New("detection backend error")
	// ErrEmbeddingBackend marks a failed face embedder call.
	ErrEmbeddingBackend = errors.New("embedding backend error")
	// ErrNoPrimaryFace means no qualified face was found in any primary document.
	ErrNoPrimaryFace = errors.New("no qualified face in primary documents")
	// ErrNoFaceInComparison means a comparison document yielded no qualified face.
	ErrNoFaceInComparison = errors.New(DetailsNoFace)
)

// BackendError wraps a failure of the detector or embedder.
// Kind is ErrDetectionBackend or ErrEmbeddingBackend.
type BackendError struct {
	Kind error
	Err  error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *BackendError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func detectionError(err error) error {
	return &BackendError{Kind: ErrDetectionBackend, Err: err}
}

func embeddingError(err error) error {
	return &BackendError{Kind: ErrEmbeddingBackend, Err: err}
}

// BackendKind returns a short label for the backend that failed, or "" when
// err is not a backend error.
func BackendKind(err error) string {
	switch {
	case errors.Is(err, ErrDetectionBackend):
		return "detection"
	case errors.Is(err, ErrEmbeddingBackend):
		return "embedding"
	default:
		return ""
	}
}
