// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package errs implements the container family's standard error type:
// a chainable error carrying a Kind that callers can branch on.
package errs

import (
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies an error so callers can decide whether to retry,
// report, or ignore it. The set is closed and specific to the
// container/codec/processor pipeline.
type Kind int

const (
	// Other is an unclassified error.
	Other Kind = iota
	// IO covers file open, read, write, and pipe errors.
	IO
	// BadMagic indicates a container's magic bytes did not match.
	BadMagic
	// FormatVersion indicates an unreadable or unsupported format version.
	FormatVersion
	// IncompatibleHeader indicates a concat or append header mismatch.
	IncompatibleHeader
	// ModeMismatch indicates an attempt to mix BQ and VBQ/CBQ inputs.
	ModeMismatch
	// NoInputs indicates an operation was given zero input files.
	NoInputs
	// PolicyRejected indicates a record was skipped by the N-policy.
	// It is never fatal; the processor counts it and continues.
	PolicyRejected
	// LengthMismatch indicates a BQ record's length did not match the
	// file's declared S or X.
	LengthMismatch
	// ShortRecord indicates a truncated fixed-length record.
	ShortRecord
	// DecodeError indicates a corrupt packed payload, truncated block,
	// or bad compression frame.
	DecodeError
	// ConfigError indicates invalid combination of flags/options, e.g.
	// split output on non-paired input, or AND with an OR-only matcher.
	ConfigError
	// Cancelled indicates the first error propagated by a parallel
	// driver after an in-flight worker aborted.
	Cancelled
)

var kindNames = map[Kind]string{
	Other:              "error",
	IO:                 "I/O error",
	BadMagic:           "bad magic",
	FormatVersion:      "unsupported format version",
	IncompatibleHeader: "incompatible header",
	ModeMismatch:       "mode mismatch",
	NoInputs:           "no inputs",
	PolicyRejected:     "rejected by N-policy",
	LengthMismatch:     "length mismatch",
	ShortRecord:        "short record",
	DecodeError:        "decode error",
	ConfigError:        "invalid configuration",
	Cancelled:          "cancelled",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "error"
}

// Error is the standard error type for this module. It carries a Kind
// and, optionally, an underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// E constructs a new *Error. Arguments are interpreted by type: a Kind
// sets the kind, a string sets (appends to) the message, and an error
// sets the cause. This mirrors the constructor style of the errors
// package this module's error handling is modeled on.
func E(args ...interface{}) error {
	e := &Error{}
	var msg strings.Builder
	for _, arg := range args {
		switch a := arg.(type) {
		case Kind:
			e.Kind = a
		case string:
			if msg.Len() > 0 {
				msg.WriteByte(' ')
			}
			msg.WriteString(a)
		case error:
			e.Err = a
		}
	}
	e.Message = msg.String()
	return e
}

// Is reports whether err (or any error in its chain) is an *Error of
// the given Kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
			err = e.Err
			continue
		}
		type unwrapper interface{ Unwrap() error }
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Wrap annotates err with a message, preserving its kind if it is
// already an *Error. It uses github.com/pkg/errors so the wrapped
// error retains a stack trace at the point of wrapping.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return &Error{Kind: e.Kind, Message: message, Err: e}
	}
	return errors.Wrap(err, message)
}
