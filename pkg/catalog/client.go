// Package catalog defines the abstract interface the resolver uses to ask
// the remote software catalog to fill in a partial package descriptor.
// Nothing in this package performs HTTP or authentication;
// concrete clients that do so live outside this module.
package catalog

import (
	"context"

	"github.com/eazel/eazel-install/pkg/pid"
)

// ErrorKind classifies a catalog failure. Of these, only NotFound is a
// resolution-level failure that the resolver attributes to a single
// package; everything else is fatal to the whole run.
type ErrorKind int

// The catalog error kinds.
const (
	NotFound ErrorKind = iota
	Ambiguous
	NetworkError
	BadResponse
	AuthRequired
)

func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "NotFound"
	case Ambiguous:
		return "Ambiguous"
	case NetworkError:
		return "NetworkError"
	case BadResponse:
		return "BadResponse"
	case AuthRequired:
		return "AuthRequired"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by Client.GetInfo.
type Error struct {
	Kind  ErrorKind
	Query string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + " for " + e.Query + ": " + e.Err.Error()
	}
	return e.Kind.String() + " for " + e.Query
}

func (e *Error) Unwrap() error { return e.Err }

// Fatal reports whether this error must abort the whole resolution run,
// rather than just being attributed to the offending package
// Every kind but NotFound is fatal to the whole run and propagates out.
func (e *Error) Fatal() bool { return e.Kind != NotFound }

// Client is the contract the resolver holds the catalog to. Implementations
// need not memoize: the resolver itself guarantees at most one GetInfo call
// per pid.ID per run.
type Client interface {
	// GetInfo fills in ref's version, identity, dependency list, provided
	// features, and file list. ref must already carry at least a Name,
	// unless ref.Filename is set, in which case the catalog step is skipped
	// entirely and the local file is read instead.
	GetInfo(ctx context.Context, ref *pid.Ref) (*pid.Ref, error)
}
