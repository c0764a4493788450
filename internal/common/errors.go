// Package common defines shared sentinel errors used across the voucher
// service. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrDuplicateCode = errors.New("voucher code already exists")

	// Service-level errors.
	ErrInternal   = errors.New("internal error")
	ErrValidation = errors.New("validation error")

	// Device-level errors.
	ErrDeviceUnavailable = errors.New("device unavailable")
)
