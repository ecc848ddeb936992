package errors

import "errors"

var (
	ErrNotFound         = errors.New("resource could not be found")
	ErrEmailTaken       = errors.New("email address is already in use")
	ErrInvalidUrl       = errors.New("controller: url is invalid")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrTooManyRequests  = errors.New("too many requests")
)

func New(text string) error {
	return errors.New(text)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}
