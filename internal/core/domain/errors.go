package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid (empty or unextractable text, bad config)
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable indicates the embedding model could not be reached.
	// Callers retry with backoff.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrCorpusQuery indicates a corpus index query failed or timed out
	ErrCorpusQuery = errors.New("corpus query failed")

	// ErrConflict indicates a concurrent recompute holds the submission
	ErrConflict = errors.New("conflict")

	// ErrModelMismatch indicates vectors from different models or dimensions were compared
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInvalidProvider indicates an unknown embedding provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates a backing service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)

// Stage names a step of the similarity pipeline.
type Stage string

const (
	StageLoad      Stage = "load"
	StageExtract   Stage = "extract"
	StageChunk     Stage = "chunk"
	StageEmbed     Stage = "embed"
	StageIndex     Stage = "index"
	StageMatch     Stage = "match"
	StageAggregate Stage = "aggregate"
	StagePersist   Stage = "persist"
)

// StageError records where in the pipeline a failure happened.
// It unwraps to the underlying error so errors.Is works against the sentinels above.
type StageError struct {
	Stage        Stage
	SubmissionID string
	MaterialID   string
	Err          error
}

func (e *StageError) Error() string {
	switch {
	case e.SubmissionID != "" && e.MaterialID != "":
		return fmt.Sprintf("%s failed (submission %s, material %s): %v", e.Stage, e.SubmissionID, e.MaterialID, e.Err)
	case e.SubmissionID != "":
		return fmt.Sprintf("%s failed (submission %s): %v", e.Stage, e.SubmissionID, e.Err)
	case e.MaterialID != "":
		return fmt.Sprintf("%s failed (material %s): %v", e.Stage, e.MaterialID, e.Err)
	default:
		return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
	}
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// IsUserActionable reports whether err should be shown to the caller as-is
// (bad input or missing data) rather than as a generic failure.
func IsUserActionable(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrNotFound)
}
