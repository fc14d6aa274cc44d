package usecase

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrJobNotFound         = errors.New("scrape job not found")
	ErrJobNotCompleted     = errors.New("scrape job not completed")
	ErrForbidden           = errors.New("forbidden")
	ErrDiagnosticsDisabled = errors.New("diagnostics disabled")
	ErrInternal            = errors.New("internal error")
)
