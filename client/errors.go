package client

import (
	"errors"
	"fmt"
	"net/http"

	cerrdefs "github.com/containerd/errdefs"
)

// ErrRedirect is the error returned by checkRedirect when the request is non-GET.
var ErrRedirect = errors.New("unexpected redirect in response")

// errConnectionFailed implements an error returned when connection failed.
type errConnectionFailed struct {
	error
}

// Error returns a string representation of an errConnectionFailed
func (e errConnectionFailed) Error() string {
	return e.error.Error()
}

func (e errConnectionFailed) Unwrap() error {
	return e.error
}

// IsErrConnectionFailed returns true if the error is caused by connection failed.
func IsErrConnectionFailed(err error) bool {
	return errors.As(err, &errConnectionFailed{})
}

// connectionFailed returns an error with host in the error message when connection
// to docker daemon failed.
func connectionFailed(host string) error {
	var err error
	if host == "" {
		err = errors.New("Cannot connect to the Docker daemon. Is the docker daemon running on this host?")
	} else {
		err = fmt.Errorf("Cannot connect to the Docker daemon at %s. Is the docker daemon running?", host)
	}
	return errConnectionFailed{error: err}
}

type emptyIDError string

func (e emptyIDError) InvalidParameter() {}

func (e emptyIDError) Error() string {
	return "invalid " + string(e) + " name or ID: value is empty"
}

// invalidParameter marks an error as caused by an argument the caller
// passed, before any request was made.
type invalidParameter struct{ error }

func (e invalidParameter) InvalidParameter() {}

func (e invalidParameter) Unwrap() error {
	return e.error
}

func errInvalidParameter(err error) error {
	if err == nil || cerrdefs.IsInvalidArgument(err) {
		return err
	}
	return invalidParameter{err}
}

// inconsistentResponseError is returned when the daemon answered with a
// success status, but the content of the response contradicts it; for
// example a pull stream without a digest, or an image archive without
// a manifest.
type inconsistentResponseError struct {
	msg string
}

func (e inconsistentResponseError) Error() string {
	return e.msg
}

func (e inconsistentResponseError) Unwrap() error {
	return cerrdefs.ErrDataLoss
}

func inconsistentResponse(format string, args ...any) error {
	return inconsistentResponseError{msg: fmt.Sprintf(format, args...)}
}

// IsErrInconsistentResponse returns true if the daemon reported success but
// the response did not hold what the operation needs.
func IsErrInconsistentResponse(err error) bool {
	return errors.As(err, &inconsistentResponseError{})
}

// httpErrorFromStatusCode classifies err by the status code of the
// response that produced it, so that it can be checked with the
// containerd errdefs helpers.
func httpErrorFromStatusCode(err error, statusCode int) error {
	if err == nil {
		return nil
	}
	var class error
	switch statusCode {
	case http.StatusBadRequest:
		class = cerrdefs.ErrInvalidArgument
	case http.StatusUnauthorized:
		class = cerrdefs.ErrUnauthenticated
	case http.StatusForbidden:
		class = cerrdefs.ErrPermissionDenied
	case http.StatusNotFound:
		class = cerrdefs.ErrNotFound
	case http.StatusConflict:
		class = cerrdefs.ErrConflict
	case http.StatusPreconditionFailed:
		class = cerrdefs.ErrFailedPrecondition
	case http.StatusNotImplemented:
		class = cerrdefs.ErrNotImplemented
	case http.StatusServiceUnavailable:
		class = cerrdefs.ErrUnavailable
	default:
		switch {
		case statusCode >= 400 && statusCode < 500:
			class = cerrdefs.ErrInvalidArgument
		case statusCode >= 500:
			class = cerrdefs.ErrInternal
		default:
			class = cerrdefs.ErrUnknown
		}
	}
	return classifiedError{error: err, class: class}
}

// classifiedError attaches an errdefs class to an error without changing
// its message.
type classifiedError struct {
	error
	class error
}

func (e classifiedError) Unwrap() []error {
	return []error{e.error, e.class}
}
