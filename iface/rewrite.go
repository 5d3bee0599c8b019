package iface

import (
	"fmt"
	"slices"
)

// CallRewrite directs a specializer to replace a matched call by a call to
// Function whose arguments are the original call's arguments at Args, in
// that order.
type CallRewrite struct {
	Function string
	Args     []int
}

// NewCallRewrite returns a rewrite to fn selecting args.
func NewCallRewrite(fn string, args ...int) CallRewrite {
	return CallRewrite{Function: fn, Args: slices.Clone(args)}
}

// Equal reports whether r and o describe the same rewrite.
func (r CallRewrite) Equal(o CallRewrite) bool {
	return r.Function == o.Function && slices.Equal(r.Args, o.Args)
}

func (r CallRewrite) String() string {
	return fmt.Sprintf("%s%v", r.Function, r.Args)
}

// Gather builds the argument list of the rewritten call from the arguments
// of the original call.
func Gather[T any](r CallRewrite, args []T) ([]T, error) {
	out := make([]T, len(r.Args))
	for i, idx := range r.Args {
		if idx < 0 || idx >= len(args) {
			return nil, fmt.Errorf("rewrite to %s: argument index %d out of range [0,%d)", r.Function, idx, len(args))
		}
		out[i] = args[idx]
	}
	return out, nil
}
