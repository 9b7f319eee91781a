// Package t8contract carries the small set of sentinel error values and
// panic helpers shared by every lib/t8* package, so that "this should
// never happen" failures look the same everywhere: a typed, stack-traced
// panic rather than a bare string.
package t8contract

import (
	"fmt"

	"github.com/pkg/errors"
)

// Violation is panicked by Violationf when calling code breaks an
// operation's contract (wrong class, stale index, commit out of order,
// and the like). It is never meant to be recovered from except at a
// process boundary (a CLI's main, or a test's require.PanicsWithError).
type Violation struct {
	msg   string
	stack error // from github.com/pkg/errors, carries a stack trace
}

func (v *Violation) Error() string { return v.msg }

func (v *Violation) Unwrap() error { return v.stack }

// Violationf panics with a *Violation built from a formatted message.
// Call it at the point the violated precondition was detected, not
// deeper in the call stack, so the message names the actual caller
// mistake.
func Violationf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	panic(&Violation{
		msg:   msg,
		stack: errors.WithStack(errors.New(msg)),
	})
}

// Recover turns a panicked *Violation into an error, for boundaries
// (a CLI's main, a test helper) that must not let the process die on a
// contract violation. Any other panic value is re-panicked.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	v, ok := r.(*Violation)
	if !ok {
		panic(r)
	}
	*errp = v
}
