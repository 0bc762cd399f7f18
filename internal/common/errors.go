package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so callers can pick a status and a user message.
type Kind string

const (
	KindBadInput           Kind = "BAD_INPUT"
	KindUnsupportedType    Kind = "UNSUPPORTED_TYPE"
	KindTooLarge           Kind = "TOO_LARGE"
	KindRateLimited        Kind = "RATE_LIMITED"
	KindExtractionFailed   Kind = "EXTRACTION_FAILED"
	KindExtractionEmpty    Kind = "EXTRACTION_EMPTY"
	KindGatewayUnavailable Kind = "GATEWAY_UNAVAILABLE"
	KindEmptyResponse      Kind = "EMPTY_RESPONSE"
	KindMalformedResponse  Kind = "MALFORMED_RESPONSE"
	KindUnexpectedFormat   Kind = "UNEXPECTED_FORMAT"
	KindEncodingFailed     Kind = "ENCODING_FAILED"
	KindConfig             Kind = "CONFIG_ERROR"
	KindInternal           Kind = "INTERNAL"
)

type kindInfo struct {
	status  int
	message string
}

var kinds = map[Kind]kindInfo{
	KindBadInput:           {http.StatusBadRequest, "No file provided."},
	KindUnsupportedType:    {http.StatusBadRequest, "Unsupported file type. Accepted: PDF, DOCX, XLSX, JPEG, PNG, HEIC."},
	KindTooLarge:           {http.StatusBadRequest, "File too large."},
	KindRateLimited:        {http.StatusTooManyRequests, "Too many requests. Please wait a moment."},
	KindExtractionFailed:   {http.StatusUnprocessableEntity, "Could not extract text from this file. It may be corrupted or empty."},
	KindExtractionEmpty:    {http.StatusUnprocessableEntity, "Could not extract text from this file. It may be image-based or empty."},
	KindGatewayUnavailable: {http.StatusBadGateway, "AI service is currently unavailable. Please try again later."},
	KindEmptyResponse:      {http.StatusBadGateway, "AI returned an empty response. Please try again."},
	KindMalformedResponse:  {http.StatusBadGateway, "AI returned invalid data. Please try again."},
	KindUnexpectedFormat:   {http.StatusBadGateway, "AI returned unexpected data format. Please try again."},
	KindEncodingFailed:     {http.StatusInternalServerError, "Failed to generate calendar file."},
	KindConfig:             {http.StatusInternalServerError, "An unexpected error occurred. Please try again."},
	KindInternal:           {http.StatusInternalServerError, "An unexpected error occurred. Please try again."},
}

// AppError represents application-specific errors
type AppError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrValidation   = errors.New("validation failed")
)

// NewAppError builds an AppError; an empty message falls back to the kind's default.
func NewAppError(kind Kind, message string, cause error) *AppError {
	if message == "" {
		message = DefaultMessage(kind)
	}
	return &AppError{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// KindError wraps cause under kind with the kind's default message.
func KindError(kind Kind, cause error) *AppError {
	return NewAppError(kind, "", cause)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// KindOf returns the Kind of the first AppError in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// UserMessage returns the short message safe to show an end user.
func UserMessage(err error) string {
	var ae *AppError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return DefaultMessage(KindInternal)
}

// HTTPStatus maps err to the response status for the parse boundary.
func HTTPStatus(err error) int {
	if info, ok := kinds[KindOf(err)]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

func DefaultMessage(kind Kind) string {
	if info, ok := kinds[kind]; ok {
		return info.message
	}
	return kinds[KindInternal].message
}
