package gpg

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	enverrors "github.com/envault/envault/internal/errors"
)

const stubScript = `#!/bin/sh
mode=""
out=""
target=""
while [ "$#" -gt 0 ]; do
	case "$1" in
	--version) exit 0 ;;
	--decrypt) mode=decrypt ;;
	--encrypt) mode=encrypt ;;
	-r) shift ;;
	-o) out="$2"; shift ;;
	-q|--no-tty|--batch) ;;
	*) target="$1" ;;
	esac
	shift
done
if [ "$mode" = decrypt ]; then
	exec cat "$target"
fi
cat > "$out"
`

const failingScript = `#!/bin/sh
case "$1" in
--version) exit 0 ;;
esac
echo "gpg: boom" >&2
exit 3
`

func writeStub(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gpg")
	if err := os.WriteFile(path, []byte(body), 0755); err != nil { // #nosec G306
		t.Fatalf("Failed to write gpg stub: %v", err)
	}
	return path
}

func TestLocatePrefersPresetBinary(t *testing.T) {
	tool := &Tool{Binary: "/opt/gpg/bin/gpg2"}
	binary, err := tool.Locate()
	if err != nil {
		t.Fatalf("Expected locate to succeed, got: %v", err)
	}
	if binary != "/opt/gpg/bin/gpg2" {
		t.Errorf("Expected the preset binary, got: %q", binary)
	}
}

func TestDecrypt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.cfg")
	if err := os.WriteFile(path, []byte("hello\n"), 0644); err != nil { // #nosec G306
		t.Fatalf("Failed to write fixture: %v", err)
	}

	tool := &Tool{Binary: writeStub(t, stubScript), Quiet: true}
	cleartext, err := tool.Decrypt(path)
	if err != nil {
		t.Fatalf("Expected decrypt to succeed, got: %v", err)
	}
	if cleartext != "hello\n" {
		t.Errorf("Expected the cleartext, got: %q", cleartext)
	}
}

func TestDecryptFailure(t *testing.T) {
	tool := &Tool{Binary: writeStub(t, failingScript)}
	_, err := tool.Decrypt("whatever")
	if !errors.Is(err, enverrors.ErrDecryptFailed) {
		t.Fatalf("Expected ErrDecryptFailed, got: %v", err)
	}

	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("Expected a CallError, got: %v", err)
	}
	if callErr.ExitCode != 3 {
		t.Errorf("Expected exit code 3, got: %d", callErr.ExitCode)
	}
	if !strings.Contains(string(callErr.Stderr), "boom") {
		t.Errorf("Expected captured stderr, got: %q", callErr.Stderr)
	}
	if !strings.Contains(err.Error(), "exitcode 3 while calling:") {
		t.Errorf("Expected the message to carry the exit code and call, got: %q", err.Error())
	}
}

func TestEncrypt(t *testing.T) {
	out := filepath.Join(t.TempDir(), "secrets.cfg")

	tool := &Tool{Binary: writeStub(t, stubScript)}
	if err := tool.Encrypt("payload\n", []string{"alice", " bob "}, out); err != nil {
		t.Fatalf("Expected encrypt to succeed, got: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read ciphertext: %v", err)
	}
	if string(data) != "payload\n" {
		t.Errorf("Expected stdin written to the output path, got: %q", data)
	}
}

func TestEncryptFailure(t *testing.T) {
	tool := &Tool{Binary: writeStub(t, failingScript)}
	err := tool.Encrypt("payload\n", []string{"alice"}, filepath.Join(t.TempDir(), "out"))
	if !errors.Is(err, enverrors.ErrEncryptFailed) {
		t.Fatalf("Expected ErrEncryptFailed, got: %v", err)
	}

	var encErr *EncryptError
	if !errors.As(err, &encErr) || encErr.ExitCode != 3 {
		t.Errorf("Expected EncryptError with exit code 3, got: %v", err)
	}
}
