package rulesets

import "errors"

// ErrInvalidDocument indicates a ruleset document that is not valid YAML.
var ErrInvalidDocument = errors.New("invalid ruleset document")
