package apperrors

import "errors"

// Hard failures of the template engine. Callers wrap these with detail text;
// transports classify them with errors.Is.
var (
	ErrEmptyTemplate      = errors.New("sqlTemplate is empty")
	ErrInvalidParams      = errors.New("invalid params json")
	ErrInvalidMarkup      = errors.New("invalid mybatis xml")
	ErrUnsupportedAction  = errors.New("unsupported mybatis action")
	ErrUnsupportedDialect = errors.New("unsupported placeholder dialect")
	ErrTemplateTooLarge   = errors.New("sqlTemplate exceeds size limit")
)

// IsInputError reports whether err was caused by the caller's input rather
// than a server failure. Input errors are logged at DEBUG, not ERROR.
func IsInputError(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range []error{
		ErrEmptyTemplate,
		ErrInvalidParams,
		ErrInvalidMarkup,
		ErrUnsupportedAction,
		ErrUnsupportedDialect,
		ErrTemplateTooLarge,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Code maps an input error to the short error code used in API responses.
// Returns "internal_error" for anything that is not an input error.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrEmptyTemplate):
		return "empty_template"
	case errors.Is(err, ErrInvalidParams):
		return "invalid_params"
	case errors.Is(err, ErrInvalidMarkup):
		return "invalid_markup"
	case errors.Is(err, ErrUnsupportedAction):
		return "unsupported_action"
	case errors.Is(err, ErrUnsupportedDialect):
		return "unsupported_dialect"
	case errors.Is(err, ErrTemplateTooLarge):
		return "template_too_large"
	}
	return "internal_error"
}
