package apperrors

import (
	"errors"
	"strings"
)

type Kind string

const (
	KindUpload       Kind = "upload"
	KindDownload     Kind = "download"
	KindPrecondition Kind = "precondition"
	KindConfig       Kind = "config"
)

type Error struct {
	Kind Kind
	// SafeMessage is intended for user-facing alerts and logs.
	SafeMessage string
	// Cause keeps the original internal error for troubleshooting.
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.SafeMessage); msg != "" {
		return msg
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func defaultSafeMessage(kind Kind) string {
	switch kind {
	case KindUpload:
		return "An error occurred while processing your file. Please try again."
	case KindDownload:
		return "An error occurred while downloading the file. Please try again."
	case KindPrecondition:
		return "The requested action is not available right now."
	case KindConfig:
		return "Invalid configuration."
	default:
		return "Request failed."
	}
}

func New(kind Kind, safeMessage string, cause error) error {
	msg := strings.TrimSpace(safeMessage)
	if msg == "" {
		msg = defaultSafeMessage(kind)
	}
	return &Error{
		Kind:        kind,
		SafeMessage: msg,
		Cause:       cause,
	}
}

func Upload(err error) error {
	return New(KindUpload, "", err)
}

func Download(err error) error {
	return New(KindDownload, "", err)
}

func Precondition(err error) error {
	return New(KindPrecondition, "", err)
}

func Config(err error) error {
	return New(KindConfig, "", err)
}

func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	got, ok := KindOf(err)
	return ok && got == kind
}

func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}
