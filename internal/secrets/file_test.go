package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	enverrors "github.com/envault/envault/internal/errors"
	logger "github.com/envault/envault/internal/logging"
)

func TestFileReadNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.cfg")

	f := NewFile(path, fakeGPG(t), true, logger.Logger{})
	if err := f.Lock(); err != nil {
		t.Fatalf("Expected lock to succeed, got: %v", err)
	}
	defer f.Unlock()

	if !f.IsNew {
		t.Errorf("Expected IsNew to be true for a missing path")
	}

	cleartext, err := f.Read()
	if err != nil {
		t.Fatalf("Expected read to succeed, got: %v", err)
	}
	if cleartext != "" {
		t.Errorf("Expected empty cleartext, got: %q", cleartext)
	}
	if n := decryptCount(t, path); n != 0 {
		t.Errorf("Expected no tool invocation for a new file, got %d", n)
	}
}

func TestFileReadIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.cfg")
	writeTestFile(t, path, "DB_PASSWORD=hunter2\n")

	f := NewFile(path, fakeGPG(t), false, logger.Logger{})
	if err := f.Lock(); err != nil {
		t.Fatalf("Expected shared lock to succeed, got: %v", err)
	}
	defer f.Unlock()

	first, err := f.Read()
	if err != nil {
		t.Fatalf("Expected first read to succeed, got: %v", err)
	}
	second, err := f.Read()
	if err != nil {
		t.Fatalf("Expected second read to succeed, got: %v", err)
	}

	if first != "DB_PASSWORD=hunter2\n" || second != first {
		t.Errorf("Expected both reads to return the cleartext, got %q and %q", first, second)
	}
	if n := decryptCount(t, path); n != 1 {
		t.Errorf("Expected exactly one decrypt invocation, got %d", n)
	}
}

func TestFileReadFailureNotCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.cfg")
	writeTestFile(t, path, "whatever\n")

	f := NewFile(path, failingGPG(t), false, logger.Logger{})
	if err := f.Lock(); err != nil {
		t.Fatalf("Expected lock to succeed, got: %v", err)
	}
	defer f.Unlock()

	if _, err := f.Read(); !errors.Is(err, enverrors.ErrDecryptFailed) {
		t.Fatalf("Expected decrypt failure, got: %v", err)
	}
	// A second read must retry, not return stale empty cleartext.
	if _, err := f.Read(); !errors.Is(err, enverrors.ErrDecryptFailed) {
		t.Fatalf("Expected decrypt failure on retry, got: %v", err)
	}
}

func TestFileLockConflict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.cfg")
	writeTestFile(t, path, "data\n")

	holder := NewFile(path, fakeGPG(t), true, logger.Logger{})
	if err := holder.Lock(); err != nil {
		t.Fatalf("Expected first lock to succeed, got: %v", err)
	}
	defer holder.Unlock()

	contender := NewFile(path, fakeGPG(t), true, logger.Logger{})
	err := contender.Lock()
	if !errors.Is(err, enverrors.ErrLockConflict) {
		t.Fatalf("Expected lock conflict, got: %v", err)
	}
	var conflict *LockConflictError
	if !errors.As(err, &conflict) || conflict.Path != path {
		t.Errorf("Expected conflict to name %s, got: %v", path, err)
	}

	// A shared lock must not sneak past an exclusive one either.
	reader := NewFile(path, fakeGPG(t), false, logger.Logger{})
	if err := reader.Lock(); !errors.Is(err, enverrors.ErrLockConflict) {
		t.Fatalf("Expected shared lock to conflict, got: %v", err)
	}

	holder.Unlock()
	if err := contender.Lock(); err != nil {
		t.Fatalf("Expected lock to succeed after release, got: %v", err)
	}
	contender.Unlock()
}

func TestFileWriteRequiresWriteLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.cfg")
	writeTestFile(t, path, "data\n")

	f := NewFile(path, fakeGPG(t), false, logger.Logger{})
	if err := f.Lock(); err != nil {
		t.Fatalf("Expected lock to succeed, got: %v", err)
	}
	defer f.Unlock()

	f.SetCleartext("changed\n")
	f.Recipients = []string{"alice"}
	if err := f.Write(); !errors.Is(err, enverrors.ErrNotWritable) {
		t.Fatalf("Expected ErrNotWritable, got: %v", err)
	}
}

func TestFileWriteRequiresRecipients(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.cfg")

	f := NewFile(path, fakeGPG(t), true, logger.Logger{})
	if err := f.Lock(); err != nil {
		t.Fatalf("Expected lock to succeed, got: %v", err)
	}
	defer f.Unlock()

	f.SetCleartext("data\n")
	if err := f.Write(); !errors.Is(err, enverrors.ErrMissingRecipients) {
		t.Fatalf("Expected ErrMissingRecipients, got: %v", err)
	}
}

func TestFileWriteReplacesCiphertext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.cfg")
	writeTestFile(t, path, "old\n")

	f := NewFile(path, fakeGPG(t), true, logger.Logger{})
	if err := f.Lock(); err != nil {
		t.Fatalf("Expected lock to succeed, got: %v", err)
	}
	defer f.Unlock()

	f.SetCleartext("new\n")
	f.Recipients = []string{"alice", "bob"}
	if err := f.Write(); err != nil {
		t.Fatalf("Expected write to succeed, got: %v", err)
	}

	if got := readTestFile(t, path); got != "new\n" {
		t.Errorf("Expected new ciphertext on disk, got: %q", got)
	}
	if got := recordedRecipients(t, path); !equalSlices(got, []string{"alice", "bob"}) {
		t.Errorf("Expected recipients [alice bob], got: %v", got)
	}
	if _, err := os.Stat(path + ".old"); !os.IsNotExist(err) {
		t.Errorf("Expected backup to be removed after a successful write")
	}
	if f.IsNew {
		t.Errorf("Expected IsNew to be false after a write")
	}
}

func TestFileWriteRollsBackOnEncryptFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.cfg")
	writeTestFile(t, path, "precious ciphertext\n")

	f := NewFile(path, failingGPG(t), true, logger.Logger{})
	if err := f.Lock(); err != nil {
		t.Fatalf("Expected lock to succeed, got: %v", err)
	}
	defer f.Unlock()

	f.SetCleartext("replacement\n")
	f.Recipients = []string{"alice"}
	if err := f.Write(); !errors.Is(err, enverrors.ErrEncryptFailed) {
		t.Fatalf("Expected encrypt failure, got: %v", err)
	}

	if got := readTestFile(t, path); got != "precious ciphertext\n" {
		t.Errorf("Expected original ciphertext restored, got: %q", got)
	}
	if _, err := os.Stat(path + ".old"); !os.IsNotExist(err) {
		t.Errorf("Expected no backup left behind after rollback")
	}
}

func TestFileUnlockIsSafeWithoutLock(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "secrets.cfg"), fakeGPG(t), true, logger.Logger{})
	f.Unlock()
	f.Unlock()
}
