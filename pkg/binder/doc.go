// Package binder writes data record attributes into named page slots.
//
// Partial records are expected: a slot whose attribute is missing is skipped
// without error and the Result tells the caller how many slots were actually
// written, so under-populated cards can be detected and handled upstream.
package binder
