package model

import (
	"errors"
	"fmt"
)

var (
	ErrCommon500        error = errors.New("something went wrong. Try again later")                                                      // 500
	ErrIncorrectQuery   error = errors.New("incorrect query parameters")                                                                 // 400
	ErrIncorrectID      error = errors.New("incorrect draft or batch ID")                                                                // 400
	ErrValidation       error = errors.New("image validation failed")                                                                    // 400
	ErrEmptyBatch       error = errors.New("no images provided")                                                                         // 400
	ErrUnauthorized     error = errors.New("signer credential is required")                                                              // 401
	ErrDraftNotFound    error = errors.New("specified draft doesn't exist")                                                              // 404
	ErrIndexOutOfRange  error = errors.New("attachment index is out of range")                                                           // 404
	ErrDecode           error = errors.New("failed to decode image")                                                                     // per-file
	ErrEncode           error = errors.New("failed to re-encode image")                                                                  // per-file
	ErrUpload           error = errors.New("failed to upload image")                                                                     // per-file
	ErrNoDriver         error = errors.New("no upload driver for endpoint scheme")                                                       // per-endpoint
	ErrResolutionEmpty  error = errors.New("no image URLs were returned. Check that your media servers are configured and reachable") // 502
	ErrUnsupportedEvent error = errors.New("unsupported upload event kind")                                                              // 400
	ErrBatchActive      error = errors.New("upload batch with this ID is already running")                                               // 409
)

// Constraint names the part of the policy a file violates.
type Constraint string

const (
	ConstraintType Constraint = "type"
	ConstraintSize Constraint = "size"
)

// ValidationError aborts the whole batch before any work starts.
type ValidationError struct {
	Constraint Constraint
	File       string
	Value      string
	Limit      int64
}

func (e *ValidationError) Error() string {
	switch e.Constraint {
	case ConstraintType:
		return fmt.Sprintf("%s: file %q has unsupported type %q (allowed: image/jpeg, image/png, image/webp)", ErrValidation, e.File, e.Value)
	case ConstraintSize:
		return fmt.Sprintf("%s: file %q is %s bytes, larger than %d bytes", ErrValidation, e.File, e.Value, e.Limit)
	default:
		return ErrValidation.Error()
	}
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// DecodeError - исходные байты не декодируются как картинка
type DecodeError struct {
	File string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s %q: %v", ErrDecode, e.File, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// EncodeError - перекодирование не дало байтов на выходе
type EncodeError struct {
	File string
	Err  error
}

func (e *EncodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %q: empty output", ErrEncode, e.File)
	}
	return fmt.Sprintf("%s %q: %v", ErrEncode, e.File, e.Err)
}

func (e *EncodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrEncode}
	}
	return []error{ErrEncode, e.Err}
}

// UploadError collects every endpoint failure for one file.
type UploadError struct {
	File   string
	Causes map[Endpoint]error
	Order  []Endpoint
}

func (e *UploadError) Error() string {
	msg := fmt.Sprintf("%s %q", ErrUpload, e.File)
	for _, ep := range e.Order {
		msg += fmt.Sprintf("; %s: %v", ep, e.Causes[ep])
	}
	return msg
}

func (e *UploadError) Unwrap() []error {
	errs := []error{ErrUpload}
	for _, ep := range e.Order {
		errs = append(errs, e.Causes[ep])
	}
	return errs
}
