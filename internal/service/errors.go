package service

import (
	"errors"

	"wordslayer/internal/repository"
)

var (
	ErrBatchNotFound    = errors.New("batch not found")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrAttemptClosed    = errors.New("attempt already answered")
	ErrWordMismatch     = errors.New("answer does not match the attempt's word")
	ErrAwardCatalog     = errors.New("award catalog is inconsistent")
	ErrInvalidTagAction = errors.New("invalid tag action")
	ErrJudgeUnavailable = errors.New("phrase judge is not configured")
	ErrInvalidDate      = errors.New("invalid date")
	ErrProverbNotFound  = errors.New("no proverbs available")
	ErrNoCurrentBank    = errors.New("no word bank selected")

	// ErrBatchConflict means a batch changed while it was being updated. Retrying is safe.
	ErrBatchConflict = repository.ErrVersionConflict
)
