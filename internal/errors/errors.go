package errors

import "errors"

// Session errors indicate a secret file session was used incorrectly or
// is unavailable.
var (
	// ErrLockConflict indicates another session already holds the advisory
	// lock on a secret file. The lock is never waited on.
	ErrLockConflict = errors.New("file is locked by another session")

	// ErrNotWritable indicates write() was called on a read-only session.
	ErrNotWritable = errors.New("session was not opened for writing")

	// ErrMissingRecipients indicates an encrypt was attempted with an empty
	// member list. Encrypting for nobody would destroy the ciphertext
	// without a readable replacement, so this is always fatal.
	ErrMissingRecipients = errors.New("need at least one member to encrypt")
)

// Tool errors indicate failures of the external OpenPGP binary.
var (
	// ErrBinaryNotFound indicates no usable gpg binary answered a probe.
	ErrBinaryNotFound = errors.New("could not find gpg binary")

	// ErrDecryptFailed indicates the tool exited nonzero while decrypting.
	ErrDecryptFailed = errors.New("gpg decryption failed")

	// ErrEncryptFailed indicates the tool exited nonzero while encrypting.
	ErrEncryptFailed = errors.New("gpg encryption failed")
)

// Environment errors indicate issues with environment directories or the
// membership section of the main secrets file.
var (
	// ErrUnknownEnvironment indicates a named environment does not exist.
	ErrUnknownEnvironment = errors.New("unknown environment")

	// ErrMembershipParse indicates the members section of the main file is
	// malformed beyond what the parser's defaults can recover.
	ErrMembershipParse = errors.New("membership section is malformed")
)
