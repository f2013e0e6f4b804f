// Package prompt wraps survey prompts behind a small Driver interface used by
// the interactive CLI session. Script replays canned answers for tests.
package prompt
