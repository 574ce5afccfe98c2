package main

import "errors"

// Sentinel errors for command operations
var (
	ErrInvalidFlag       = errors.New("invalid flag value")
	ErrExamplesFailed    = errors.New("some examples failed")
	ErrUnstableRoundtrip = errors.New("roundtrip is not stable")
	ErrFileNotFormatted  = errors.New("file is not formatted")
	ErrFormattingErrors  = errors.New("some files had formatting errors")
	ErrHistoryDisabled   = errors.New("history is not configured")
)
