// Package fieldlist manages repeatable groups of form inputs that users add
// and remove at runtime.
//
// Every group gets a fresh identifier (UUIDs by default) that stays unique
// for the lifetime of the list. Removal never reorders the remaining groups
// and removing an unknown identifier is a no-op that reports false.
//
// When configured with WithDocument the list also materializes each group as
// a container element holding one input per field and a remove button. All
// of them carry the group id in the data-group-id attribute.
package fieldlist
