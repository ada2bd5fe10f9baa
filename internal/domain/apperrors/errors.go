package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is bad caller input, surfaced immediately.
	ErrValidation = errors.New("validation error")

	// ErrUnsupportedType is an upload kind outside video/pdf.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrExtraction wraps transcription, pdf extraction and transcript rendering failures.
	ErrExtraction = errors.New("extraction failed")

	// ErrIndexWrite wraps embedding or vector store write failures.
	ErrIndexWrite = errors.New("index write failed")

	ErrGeneration = errors.New("generation failed")

	// ErrGenerationTimeout also matches ErrGeneration.
	ErrGenerationTimeout = fmt.Errorf("%w: timed out", ErrGeneration)

	// ErrIndexUnavailable is returned when the retriever cannot be built or queried.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrDuplicateJob should never happen with uuid ids.
	ErrDuplicateJob = errors.New("duplicate job id")
)
