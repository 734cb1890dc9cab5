// Package audit appends a JSON Lines record of secret operations to
// environments/.audit.jsonl.
//
// The log answers "who re-encrypted what, when" without revealing any
// secret content: entries carry the operation, environment, file names
// and membership counts only. Logging is strictly best-effort — a
// failing audit write never fails the operation it records.
package audit
