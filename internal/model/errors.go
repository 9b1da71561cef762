package model

import "errors"

// Error taxonomy shared by the parsers, the resolver and the lookup client.
var (
	// ErrParseFailure means the text did not match any recognised pattern.
	// It is an expected outcome for free text and is never logged as an error.
	ErrParseFailure = errors.New("parse failure")

	// ErrConfigurationMissing means the pattern set or metadata lacks the data
	// a parser needs for the current locale.
	ErrConfigurationMissing = errors.New("configuration missing")

	// ErrLookupUnavailable means the lookup collaborator failed or returned
	// malformed data.
	ErrLookupUnavailable = errors.New("lookup unavailable")

	// ErrUnknownProperty is returned by metadata stores for unconfigured properties
	ErrUnknownProperty = errors.New("unknown property")
)
