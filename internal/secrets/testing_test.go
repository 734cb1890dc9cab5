package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/envault/envault/internal/gpg"
)

// fakeGPGScript stands in for the real gpg binary. Decrypt is cat (the
// "ciphertext" on disk is the plaintext), and each decrypt appends a
// marker line to <target>.decrypts so tests can count tool invocations.
// Encrypt copies stdin to the output path and records the recipients in
// a <output>.recipients sidecar.
const fakeGPGScript = `#!/bin/sh
mode=""
out=""
recips=""
target=""
while [ "$#" -gt 0 ]; do
	case "$1" in
	--version) exit 0 ;;
	--decrypt) mode=decrypt ;;
	--encrypt) mode=encrypt ;;
	-r) recips="$recips$2,"; shift ;;
	-o) out="$2"; shift ;;
	-q|--no-tty|--batch) ;;
	*) target="$1" ;;
	esac
	shift
done
case "$mode" in
decrypt)
	printf 'x\n' >> "$target.decrypts"
	exec cat "$target"
	;;
encrypt)
	printf '%s\n' "$recips" > "$out.recipients"
	cat > "$out"
	exit 0
	;;
*) exit 64 ;;
esac
`

// failingGPGScript answers the version probe but fails every other
// invocation with a nonzero exit and a message on stderr.
const failingGPGScript = `#!/bin/sh
case "$1" in
--version) exit 0 ;;
esac
echo "gpg: boom" >&2
exit 3
`

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gpg")
	if err := os.WriteFile(path, []byte(body), 0755); err != nil { // #nosec G306
		t.Fatalf("Failed to write gpg stub: %v", err)
	}
	return path
}

func fakeGPG(t *testing.T) *gpg.Tool {
	t.Helper()
	return &gpg.Tool{Binary: writeScript(t, fakeGPGScript)}
}

func failingGPG(t *testing.T) *gpg.Tool {
	t.Helper()
	return &gpg.Tool{Binary: writeScript(t, failingGPGScript)}
}

// writeTestFile is a helper to write test files with 0644 permissions.
// #nosec G306 -- Test files are temporary and don't contain sensitive data.
func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create parent directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil { // #nosec G306
		t.Fatalf("Failed to create test file: %v", err)
	}
}

func readTestFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

// decryptCount returns how many times the fake gpg decrypted path.
func decryptCount(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path + ".decrypts")
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatalf("Failed to read decrypt marker: %v", err)
	}
	return strings.Count(string(data), "x\n")
}

// recordedRecipients returns the recipients the fake gpg last encrypted
// path for.
func recordedRecipients(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path + ".recipients")
	if err != nil {
		t.Fatalf("Failed to read recipients sidecar for %s: %v", path, err)
	}
	var recipients []string
	for _, part := range strings.Split(strings.TrimSpace(string(data)), ",") {
		if part != "" {
			recipients = append(recipients, part)
		}
	}
	return recipients
}

// chdir switches the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	previous, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to chdir to %s: %v", dir, err)
	}
	t.Cleanup(func() { _ = os.Chdir(previous) })
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
