package errors

import "errors"

var (
	ErrUnsupportedLanguage    = errors.New("unsupported language")
	ErrInvalidDefaultLanguage = errors.New("default language is not supported")
	ErrNoLanguages            = errors.New("no languages configured")
	ErrMissingTranslations    = errors.New("missing translation table")
	ErrInvalidAuthURL         = errors.New("invalid auth api url")
	ErrInvalidStorageBackend  = errors.New("invalid storage backend")
	ErrSettingsNotFound       = errors.New("settings file not found")
	ErrInvalidSettings        = errors.New("invalid settings format")
	ErrValidation             = errors.New("validation failed")
	ErrAuthRejected           = errors.New("authentication rejected")
	ErrTransport              = errors.New("auth service unreachable")
	ErrCorruptState           = errors.New("corrupt stored state")
	ErrSubmissionInFlight     = errors.New("submission already in progress")
)
