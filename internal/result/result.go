// Package result provides a two-variant success/failure value used at every
// external-provider boundary (token signing, LINE, Gemini, object storage).
//
// WHY NOT JUST (T, error)?
// Go's (T, error) pair already models success/failure, and most of this
// codebase uses it. Result is reserved for calls into the outside world so
// that the point where a provider failure becomes an HTTP error is explicit:
// a handler or service calls Resolve exactly once and decides how the failure
// is presented. Nothing else should inspect a Result's error.
//
//	upload := s.store.UploadImage(ctx, img.Data, img.MIMEType)
//	u, err := upload.Resolve(func(err error) error {
//	    return apperror.Upstream("Failed to upload image to R2", err)
//	})
package result

import "errors"

// ErrMissing is substituted when Err is called with a nil error, so a failure
// can never be mistaken for a success.
var ErrMissing = errors.New("result: failure without error")

// Result holds either a value (success) or an error (failure), never both.
// The zero value is a success carrying T's zero value.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err wraps a failure.
func Err[T any](err error) Result[T] {
	if err == nil {
		err = ErrMissing
	}
	return Result[T]{err: err}
}

// Of adapts a conventional (T, error) return.
func Of[T any](v T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(v)
}

func (r Result[T]) IsOk() bool  { return r.err == nil }
func (r Result[T]) IsErr() bool { return r.err != nil }

// Value returns the payload, or T's zero value on failure.
func (r Result[T]) Value() T { return r.value }

// Err returns the failure, or nil on success.
func (r Result[T]) Err() error { return r.err }

// Unwrap converts back to the (T, error) convention.
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.err
}

// Resolve is the single point where a failure leaves the Result discipline.
// On failure it returns wrap(err); a nil wrap returns err unchanged.
func (r Result[T]) Resolve(wrap func(error) error) (T, error) {
	if r.err == nil {
		return r.value, nil
	}
	var zero T
	if wrap == nil {
		return zero, r.err
	}
	return zero, wrap(r.err)
}

// MapErr rewrites the failure, leaving a success untouched.
func (r Result[T]) MapErr(f func(error) error) Result[T] {
	if r.err == nil {
		return r
	}
	return Err[T](f(r.err))
}

// Map transforms a success value. Failures pass through.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if r.err != nil {
		return Err[U](r.err)
	}
	return Ok(f(r.value))
}

// Then chains a fallible step after a success.
func Then[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Err[U](r.err)
	}
	return f(r.value)
}
