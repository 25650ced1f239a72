// Package invariant provides contract assertions for just-bash.
//
// Assertions are a force multiplier for discovering bugs early: use
// Precondition/Postcondition to express a function's contract and Invariant
// for internal consistency checks. All functions panic on violation -
// these are programming errors in this engine, not user shell-script errors.
package invariant

import (
	"fmt"
	"reflect"
)

// Precondition checks an input contract at function entry.
func Precondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Postcondition checks an output contract before function return.
func Postcondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("POSTCONDITION", format, args...)
	}
}

// Invariant checks an internal invariant during execution.
func Invariant(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// NotNil panics if v is nil (covers both untyped nil and nil-valued interfaces).
func NotNil(v interface{}, name string) {
	if v == nil {
		fail("PRECONDITION", "%s must not be nil", name)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		if rv.IsNil() {
			fail("PRECONDITION", "%s must not be nil", name)
		}
	}
}

// InRange checks that v falls within [lo, hi] inclusive.
func InRange(v, lo, hi int, name string) {
	if v < lo || v > hi {
		fail("POSTCONDITION", "%s must be within [%d, %d], got %d", name, lo, hi, v)
	}
}

func fail(kind, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	panic(fmt.Sprintf("%s VIOLATION: %s", kind, msg))
}
