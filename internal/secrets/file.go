package secrets

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	enverrors "github.com/envault/envault/internal/errors"
	"github.com/envault/envault/internal/gpg"
	logger "github.com/envault/envault/internal/logging"
)

// LockConflictError indicates another session holds the advisory lock on
// a secret file.
type LockConflictError struct {
	Path string
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("%s is locked by another session", e.Path)
}

func (e *LockConflictError) Unwrap() error { return enverrors.ErrLockConflict }

// File is one on-disk encrypted artifact. It owns the advisory lock on
// the path, the lazily decrypted cleartext, and the atomic re-encrypt of
// the ciphertext. Key management is handled externally: the owning
// Bundle sets Recipients before Write.
type File struct {
	// Path of the encrypted file.
	Path string

	// WriteLock is fixed at construction. Write refuses to run without
	// it, and Lock takes a shared instead of an exclusive lock when it
	// is false.
	WriteLock bool

	// Recipients receive the ciphertext on the next Write. Set by the
	// owning Bundle from the membership document.
	Recipients []string

	// IsNew reports whether the path existed when the lock was taken.
	// Determined exactly once per File.
	IsNew bool

	tool *gpg.Tool
	log  logger.Logger

	lockFile   *os.File
	cleartext  string
	loaded     bool
	isNewKnown bool
}

// NewFile returns an unlocked File for path. writeLock must be true if a
// modification of the file is intended.
func NewFile(path string, tool *gpg.Tool, writeLock bool, log logger.Logger) *File {
	return &File{
		Path:      path,
		WriteLock: writeLock,
		tool:      tool,
		log:       log,
	}
}

// Lock opens the path (creating it when absent and a write lock is
// requested) and takes a non-blocking advisory lock: exclusive for write
// sessions, shared for read-only sessions. A lock held elsewhere fails
// immediately with a LockConflictError; it is never waited on.
func (f *File) Lock() error {
	f.log.Debugf("locking %s", f.Path)

	if !f.isNewKnown {
		_, err := os.Stat(f.Path)
		f.IsNew = os.IsNotExist(err)
		f.isNewKnown = true
	}

	flags := os.O_RDONLY
	if f.WriteLock {
		flags = os.O_RDWR | os.O_CREATE
	}
	handle, err := os.OpenFile(f.Path, flags, 0600)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Path, err)
	}

	how := unix.LOCK_SH
	if f.WriteLock {
		how = unix.LOCK_EX
	}
	if err := unix.Flock(int(handle.Fd()), how|unix.LOCK_NB); err != nil {
		_ = handle.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return &LockConflictError{Path: f.Path}
		}
		return fmt.Errorf("failed to lock %s: %w", f.Path, err)
	}

	f.lockFile = handle
	return nil
}

// Read decrypts the file into cleartext, once. Later calls return the
// cached cleartext without invoking the tool. A file that did not exist
// at lock time reads as empty. Decrypt failures are not cached; the next
// Read retries.
func (f *File) Read() (string, error) {
	if f.loaded {
		return f.cleartext, nil
	}

	// A write lock creates the file, so check IsNew rather than
	// existence: an empty just-created artifact has no ciphertext to
	// decrypt.
	if _, err := os.Stat(f.Path); os.IsNotExist(err) || f.IsNew {
		f.cleartext = ""
		f.loaded = true
		return f.cleartext, nil
	}

	cleartext, err := f.tool.Decrypt(f.Path)
	if err != nil {
		return "", err
	}
	f.cleartext = cleartext
	f.loaded = true
	return f.cleartext, nil
}

// Cleartext returns the current in-memory cleartext.
func (f *File) Cleartext() string {
	return f.cleartext
}

// SetCleartext replaces the in-memory cleartext to be stored on the next
// Write. Nothing touches the disk until then.
func (f *File) SetCleartext(cleartext string) {
	f.cleartext = cleartext
	f.loaded = true
}

// Write encrypts the cleartext for Recipients and atomically replaces
// the ciphertext on disk. The existing artifact is renamed to a backup
// first; on any encrypt failure it is renamed back before the error is
// returned, so the on-disk file is never missing or half-written.
func (f *File) Write() error {
	if !f.WriteLock {
		return fmt.Errorf("write %s: %w", f.Path, enverrors.ErrNotWritable)
	}
	if len(f.Recipients) == 0 {
		return fmt.Errorf("write %s: %w", f.Path, enverrors.ErrMissingRecipients)
	}

	backup := f.Path + ".old"
	hasBackup := true
	if err := os.Rename(f.Path, backup); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to back up %s: %w", f.Path, err)
		}
		hasBackup = false
	}

	if err := f.tool.Encrypt(f.cleartext, f.Recipients, f.Path); err != nil {
		if hasBackup {
			if restoreErr := os.Rename(backup, f.Path); restoreErr != nil {
				f.log.Errorf("failed to restore %s from backup: %v", f.Path, restoreErr)
			}
		}
		return err
	}

	if hasBackup {
		if err := os.Remove(backup); err != nil {
			f.log.Warnf("failed to remove backup %s: %v", backup, err)
		}
	}
	f.IsNew = false
	return nil
}

// Unlock releases the advisory lock. Safe to call on an unlocked file
// and regardless of whether a write happened.
func (f *File) Unlock() {
	if f.lockFile == nil {
		return
	}
	_ = unix.Flock(int(f.lockFile.Fd()), unix.LOCK_UN)
	_ = f.lockFile.Close()
	f.lockFile = nil
}
