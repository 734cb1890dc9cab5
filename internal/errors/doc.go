// Package errors defines sentinel errors shared across envault packages.
//
// Errors that carry context (the conflicting path, the gpg exit code)
// are defined as typed errors next to the code that produces them and
// unwrap to the sentinels here, so callers can branch with errors.Is
// without importing every producing package:
//
//	if errors.Is(err, errors.ErrLockConflict) {
//	    // another session owns the file; retry later
//	}
//
// None of these errors are retried internally. The CLI layer decides
// whether an error is worth retrying after showing it to the user.
package errors
