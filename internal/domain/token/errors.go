package token

import "errors"

// Validation errors returned by Decode
var (
	ErrInvalidBody     = errors.New("request body must be a JSON object")
	ErrMissingInput    = errors.New("missing cookies or url")
	ErrCookiesNotArray = errors.New("cookies must be an array")
	ErrInvalidAwardID  = errors.New("awardId must be numeric")
	ErrInvalidProxy    = errors.New("proxy must be a string")
)
