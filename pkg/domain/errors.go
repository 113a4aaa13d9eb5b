package domain

import "errors"

var (
	ErrEmptyPrompt       = errors.New("prompt is required")
	ErrNoModels          = errors.New("at least one model is required")
	ErrUnknownModel      = errors.New("unknown model")
	ErrMissingToken      = errors.New("api token is required")
	ErrInvalidReplicates = errors.New("replicates per model must be >= 1")
	ErrBatchInProgress   = errors.New("a batch is still in progress")
	ErrBatchNotFound     = errors.New("batch not found")
	ErrInvalidRanking    = errors.New("rank positions must be a permutation of 1..N")
	ErrEmptyUsername     = errors.New("username is required")
	ErrNotFound          = errors.New("not found")
)
