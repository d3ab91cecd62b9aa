// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ferrors defines the fallible-result error kinds shared by the
// topic, trie, wire, and keys packages. Every operation described as
// "fallible" across those packages returns one of these kinds (or a wrapped
// standard error) instead of panicking. Kinds are distinguished by Go type,
// never by string comparison, so callers use errors.As.
package ferrors

import "fmt"

// Kind identifies which of the seven error categories an error belongs to.
type Kind string

const (
	// KindParse covers topic syntax/shape errors.
	KindParse Kind = "parse"
	// KindBinding covers missing template parameters and name mismatches.
	KindBinding Kind = "binding"
	// KindWire covers malformed wire headers and unknown categories.
	KindWire Kind = "wire"
	// KindCrypto covers envelope encryption/decryption failures.
	KindCrypto Kind = "crypto"
	// KindType covers requested-type/decoded-shape mismatches.
	KindType Kind = "type"
	// KindConfig covers invalid label resolver configuration.
	KindConfig Kind = "config"
	// KindLookup is reserved for callers; the trie itself never returns it.
	KindLookup Kind = "lookup"
)

// ErrorCode is implemented by errors that carry a short, stable machine
// code in addition to a human message. Mirrors the teacher errors
// package's ErrorCode interface, without the HTTP status coupling.
type ErrorCode interface {
	Code() string
}

// ErrorDetails is implemented by errors that carry structured
// supplementary data (e.g. the offending segment index).
type ErrorDetails interface {
	Details() map[string]any
}

// Error is the concrete error type returned by every fallible operation
// in this module. It chains an optional prior error for diagnostic
// purposes, the way the teacher's errors package chains causes.
type Error struct {
	Kind    Kind
	Message string
	Prior   error
	Extra   map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Prior != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Prior)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the chained prior error to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Prior
}

// Code implements ErrorCode.
func (e *Error) Code() string {
	return string(e.Kind)
}

// Details implements ErrorDetails. Returns nil if no extra data was set.
func (e *Error) Details() map[string]any {
	return e.Extra
}

// Is reports whether target is an *Error of the same Kind, so that
// errors.Is(err, ferrors.Parse("")) style sentinel checks work without
// comparing messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.Kind == t.Kind
}

func newErr(kind Kind, message string, prior error) *Error {
	return &Error{Kind: kind, Message: message, Prior: prior}
}

// Parse builds a ParseError (topic syntax/shape).
func Parse(message string) *Error { return newErr(KindParse, message, nil) }

// Parsef builds a ParseError with a formatted message.
func Parsef(format string, args ...any) *Error {
	return newErr(KindParse, fmt.Sprintf(format, args...), nil)
}

// Binding builds a BindingError (missing/mismatched template parameter).
func Binding(message string) *Error { return newErr(KindBinding, message, nil) }

// Bindingf builds a BindingError with a formatted message.
func Bindingf(format string, args ...any) *Error {
	return newErr(KindBinding, fmt.Sprintf(format, args...), nil)
}

// Wire builds a WireError (malformed header, bad category, short buffer).
func Wire(message string) *Error { return newErr(KindWire, message, nil) }

// Wiref builds a WireError with a formatted message.
func Wiref(format string, args ...any) *Error {
	return newErr(KindWire, fmt.Sprintf(format, args...), nil)
}

// Crypto builds a CryptoError, optionally wrapping the underlying cause.
func Crypto(message string, prior error) *Error { return newErr(KindCrypto, message, prior) }

// Cryptof builds a CryptoError with a formatted message and no prior cause.
func Cryptof(format string, args ...any) *Error {
	return newErr(KindCrypto, fmt.Sprintf(format, args...), nil)
}

// Type builds a TypeError (decoded shape does not fit the requested target).
func Type(message string) *Error { return newErr(KindType, message, nil) }

// Typef builds a TypeError with a formatted message.
func Typef(format string, args ...any) *Error {
	return newErr(KindType, fmt.Sprintf(format, args...), nil)
}

// Config builds a ConfigError (invalid label resolver configuration).
func Config(message string) *Error { return newErr(KindConfig, message, nil) }

// Configf builds a ConfigError with a formatted message.
func Configf(format string, args ...any) *Error {
	return newErr(KindConfig, fmt.Sprintf(format, args...), nil)
}

// Lookup builds a LookupError. The trie never returns this itself; it
// exists for callers layering their own "no handler found" semantics
// on top of trie.PathTrie.
func Lookup(message string) *Error { return newErr(KindLookup, message, nil) }
