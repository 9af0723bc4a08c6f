// Package capability defines the callable shape of a governed capability
// and the gateway error sentinels.
package capability

import (
	"context"
	"errors"
)

// Func is the implementation of one capability. Arguments arrive as a
// decoded JSON object; the result is marshaled for the audit summary.
type Func func(ctx context.Context, args map[string]any) (any, error)

// ErrNotDeclared indicates the capability name is outside the agent
// definition's declared set. The declared set is the authorization
// boundary: this fires even when an implementation exists.
var ErrNotDeclared = errors.New("capability not declared")

// ErrNotImplemented indicates a declared capability with no registered
// binding and no deferred-loading match.
var ErrNotImplemented = errors.New("capability not implemented")
