package service

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrQueryFailed        = errors.New("query failed")
	ErrStorageDegraded    = errors.New("storage degraded")
	ErrStorageUnavailable = errors.New("storage not configured")
)
