// Package secrets implements envault's encrypted file handling.
//
// A deployment environment owns one structured main file (secrets.cfg)
// plus any number of sibling secret files (secret-*), all encrypted for
// the same members. The package keeps the on-disk ciphertext consistent
// with the member list stored in the main file's [envault] section.
//
// # Sessions
//
// All work happens inside a Bundle session:
//
//	bundle, err := secrets.Open(secrets.MainFilePath("production"), secrets.BundleOptions{
//	    Environment: "production",
//	    WriteLock:   true,
//	})
//	defer bundle.Close()
//
// Open takes a non-blocking advisory lock on every file (exclusive for
// write sessions, shared for read-only ones) and lazily decrypts each
// file at most once. Commit pushes the membership into every file and
// re-encrypts them; each file is replaced atomically with a rollback to
// the prior ciphertext if gpg fails, so the artifact on disk is never
// missing or half-written. Close always releases the locks and deletes
// the main file when the membership ended up empty.
//
// The commit across several files is deliberately not transactional: a
// failure mid-way leaves earlier files on the new member list and later
// ones on the old. See Bundle.Commit.
//
// # Membership
//
// The main file's cleartext is modeled as a Document owning exactly the
// members key; every other byte, including comments and formatting in
// other sections, survives a parse/mutate/serialize cycle untouched.
// Member lists are trimmed and sorted but never deduplicated — a
// duplicated entry is encrypted for redundantly rather than silently
// dropped.
//
// Cryptography itself is delegated entirely to the external gpg binary
// via the gpg package; this package never persists cleartext.
package secrets
