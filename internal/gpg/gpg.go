package gpg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	enverrors "github.com/envault/envault/internal/errors"
	logger "github.com/envault/envault/internal/logging"
)

// binaryCandidates are probed in order; the first one that answers a
// version query is used.
var binaryCandidates = []string{"gpg", "gpg2"}

// Tool invokes an external OpenPGP binary for decrypt and encrypt
// operations. The zero value probes for a binary on first use; setting
// Binary skips the probe (used for the user's gpg_binary override and in
// tests).
type Tool struct {
	// Binary is the resolved binary. Filled in by Locate on first
	// success and reused for the remainder of the session.
	Binary string

	// Quiet passes -q --no-tty --batch on decrypt, for non-interactive
	// use.
	Quiet bool

	Log logger.Logger
}

// CallError reports a nonzero exit from the gpg binary during decrypt,
// carrying the full argument vector and captured stderr.
type CallError struct {
	Args     []string
	ExitCode int
	Stderr   []byte
}

func (e *CallError) Error() string {
	msg := fmt.Sprintf("exitcode %d while calling: %s", e.ExitCode, strings.Join(e.Args, " "))
	if len(e.Stderr) > 0 {
		msg += "\n" + string(bytes.TrimRight(e.Stderr, "\n"))
	}
	return msg
}

func (e *CallError) Unwrap() error { return enverrors.ErrDecryptFailed }

// EncryptError reports a nonzero exit from the gpg binary during
// encrypt.
type EncryptError struct {
	ExitCode int
}

func (e *EncryptError) Error() string {
	return fmt.Sprintf("gpg returned exit code %d while encrypting", e.ExitCode)
}

func (e *EncryptError) Unwrap() error { return enverrors.ErrEncryptFailed }

// Locate returns a usable gpg binary, probing the candidates with a
// version query. The result is cached on the Tool.
func (t *Tool) Locate() (string, error) {
	if t.Binary != "" {
		return t.Binary, nil
	}
	for _, candidate := range binaryCandidates {
		t.Log.Debugf("trying %q", candidate+" --version")
		probe := exec.Command(candidate, "--version")
		probe.Stdout = io.Discard
		probe.Stderr = io.Discard
		if err := probe.Run(); err == nil {
			t.Binary = candidate
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w; is GPG installed? tried: %s",
		enverrors.ErrBinaryNotFound, strings.Join(binaryCandidates, ", "))
}

// Decrypt runs the tool in decrypt mode against path and returns the
// captured plaintext. Nothing on disk is touched.
func (t *Tool) Decrypt(path string) (string, error) {
	binary, err := t.Locate()
	if err != nil {
		return "", err
	}

	var args []string
	if t.Quiet {
		args = append(args, "-q", "--no-tty", "--batch")
	}
	args = append(args, "--decrypt", path)

	var stdout, stderr bytes.Buffer
	command := exec.Command(binary, args...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	t.Log.Debugf("decrypting with: %s %s", binary, strings.Join(args, " "))
	if err := command.Run(); err != nil {
		return "", &CallError{
			Args:     append([]string{binary}, args...),
			ExitCode: exitCode(err),
			Stderr:   stderr.Bytes(),
		}
	}
	return stdout.String(), nil
}

// Encrypt runs the tool in encrypt mode, feeding cleartext on stdin and
// writing ciphertext to outputPath. One -r flag is passed per recipient,
// in the order given. The caller is responsible for ensuring recipients
// is non-empty and outputPath does not exist.
func (t *Tool) Encrypt(cleartext string, recipients []string, outputPath string) error {
	binary, err := t.Locate()
	if err != nil {
		return err
	}

	args := []string{"--encrypt"}
	for _, recipient := range recipients {
		args = append(args, "-r", strings.TrimSpace(recipient))
	}
	args = append(args, "-o", outputPath)

	command := exec.Command(binary, args...)
	command.Stdin = strings.NewReader(cleartext)

	t.Log.Debugf("encrypting with: %s %s", binary, strings.Join(args, " "))
	if err := command.Run(); err != nil {
		return &EncryptError{ExitCode: exitCode(err)}
	}
	return nil
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
