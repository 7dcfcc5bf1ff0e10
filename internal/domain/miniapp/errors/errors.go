package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrStaleData        = errors.New("stale data")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrInternal         = errors.New("internal error")
)

func NewMalformedPayload(msg string) error {
	return fmt.Errorf("%w: %s", ErrMalformedPayload, msg)
}

func WrapInternal(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, context, err)
}

func IsInvalidSignature(err error) bool {
	return errors.Is(err, ErrInvalidSignature)
}

func IsMalformedPayload(err error) bool {
	return errors.Is(err, ErrMalformedPayload)
}

func IsStaleData(err error) bool {
	return errors.Is(err, ErrStaleData)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}
