// Copyright (c) 2024 Jerzy Dąbrowski
// Based on original work by Thomas Jager, 2009. All rights reserved.
//
// This project is a fork of the original go-ircevent library created by Thomas Jager.
// Redistribution and use in source and binary forms, with or without modification, are permitted provided
// that the following conditions are met:
//
//    - Redistributions of source code must retain the above copyright notice, this list of conditions,
//      and the following disclaimer.
//    - Redistributions in binary form must reproduce the above copyright notice, this list of conditions,
//      and the following disclaimer in the documentation and/or other materials provided with the distribution.
//    - Neither the name of the original authors nor the names of its contributors may be used to endorse
//      or promote products derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED "AS IS" WITHOUT WARRANTY OF ANY KIND, EXPRESS OR IMPLIED, INCLUDING BUT NOT
// LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE, AND NONINFRINGEMENT.
// IN NO EVENT SHALL THE COPYRIGHT HOLDERS OR CONTRIBUTORS BE LIABLE FOR ANY CLAIM, DAMAGES, OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT, OR OTHERWISE, ARISING FROM, OUT OF, OR IN CONNECTION WITH THE SOFTWARE
// OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

package irc

import "fmt"

// ErrKind classifies a failure the session can surface to its host.
// ParseError never reaches this taxonomy: malformed inbound lines are
// dropped by handleMessage and never leave the package.
type ErrKind int

const (
	ErrConnection ErrKind = iota
	ErrTLSHandshake
	ErrNetworkRead
	ErrNetworkWrite
	ErrThreadSpawn
)

func (k ErrKind) String() string {
	switch k {
	case ErrConnection:
		return "connection failed"
	case ErrTLSHandshake:
		return "tls handshake failed"
	case ErrNetworkRead:
		return "network read failed"
	case ErrNetworkWrite:
		return "network write failed"
	case ErrThreadSpawn:
		return "thread spawn failed"
	default:
		return "unknown error"
	}
}

// SessionError wraps an underlying cause with the kind of failure that
// produced it, so a host can branch on Kind without string-matching.
type SessionError struct {
	Kind  ErrKind
	Cause error
}

func (e *SessionError) Error() string {
	if e.Cause == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

func wrapErr(kind ErrKind, cause error) error {
	if cause == nil {
		return nil
	}
	return &SessionError{Kind: kind, Cause: cause}
}
