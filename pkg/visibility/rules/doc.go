// Package rules binds visibility predicates to page elements.
//
// Rules are registered once when the page is wired. Each Refresh evaluates
// every rule against the current input state and sets or clears the marker
// class on the rule's target; targets that are no longer attached are
// skipped and reported.
package rules
