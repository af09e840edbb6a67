// Package classify maps errors from client libraries to [again.Kind] values.
//
// A classifier is plugged into an execution with [again.Classify]:
//
//	again.Execute(ctx, op, chain, again.Classify(classify.First(
//		grpcclass.Classify,
//		classify.HTTP,
//	)))
//
// The sub-packages cover gRPC, PostgreSQL, Redis and AWS clients.
package classify

import (
	"errors"
	"net/http"

	"andy.dev/again"
)

// Func returns the kind of err, or false if it does not recognise err.
type Func func(err error) (again.Kind, bool)

// First combines classifiers, returning the answer of the first one that
// recognises an error.
func First(fns ...Func) Func {
	return func(err error) (again.Kind, bool) {
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if k, ok := fn(err); ok {
				return k, true
			}
		}
		return again.KindGeneric, false
	}
}

// Errors is a shortcut to writing a Func of the form
//
//	func(e error) (again.Kind, bool) {
//	    if errors.Is(e, Err1) || errors.Is(e, Err2) /* ... */ {
//	        return kind, true
//	    }
//	    return 0, false
//	}
func Errors(kind again.Kind, errs ...error) Func {
	return func(e error) (again.Kind, bool) {
		for i := range errs {
			if errors.Is(e, errs[i]) {
				return kind, true
			}
		}
		return again.KindGeneric, false
	}
}

// HTTPStatus maps an HTTP response status code to a kind.
func HTTPStatus(code int) (again.Kind, bool) {
	switch code {
	case http.StatusTooManyRequests:
		return again.KindOverloaded, true
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return again.KindUnavailable, true
	case http.StatusConflict, http.StatusPreconditionFailed:
		return again.KindConflict, true
	case http.StatusNotFound, http.StatusGone:
		return again.KindNotFound, true
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge:
		return again.KindInvalidArgument, true
	case http.StatusRequestTimeout:
		return again.KindCancelled, true
	}
	return again.KindGeneric, false
}

// httpStatusCoder is implemented by the response errors of several clients,
// including the AWS SDK.
type httpStatusCoder interface {
	HTTPStatusCode() int
}

// HTTP classifies errors carrying an HTTP status code with [HTTPStatus].
func HTTP(err error) (again.Kind, bool) {
	var sc httpStatusCoder
	if errors.As(err, &sc) {
		return HTTPStatus(sc.HTTPStatusCode())
	}
	return again.KindGeneric, false
}

// StatusError is an error for an HTTP response with an unexpected status.
type StatusError struct {
	Code int
	Body string
}

// Error implements the error interface.
func (se *StatusError) Error() string {
	if se.Body == "" {
		return http.StatusText(se.Code)
	}
	return http.StatusText(se.Code) + ": " + se.Body
}

// HTTPStatusCode returns the response status code.
func (se *StatusError) HTTPStatusCode() int {
	return se.Code
}
