package models

import "errors"

// ErrValidation marks user-correctable input errors (bad enum values, bad windows).
var ErrValidation = errors.New("validation failed")
