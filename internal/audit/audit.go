package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/envault/envault/internal/configs"
)

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp string `json:"ts"`      // RFC3339 with microseconds.
	Session   string `json:"session"` // UUID of the CLI session.
	User      string `json:"user"`    // OS username performing the action.
	Operation string `json:"op"`      // Operation name.

	// Optional fields depending on operation.
	Environment  string `json:"environment,omitempty"`
	File         string `json:"file,omitempty"`          // For edit.
	Member       string `json:"member,omitempty"`        // For add-member/remove-member.
	MembersCount int    `json:"members_count,omitempty"` // Membership size after the operation.
	FilesCount   int    `json:"files_count,omitempty"`   // Files re-encrypted.
}

// NewSession returns a session ID shared by all entries of one CLI
// invocation.
func NewSession() string {
	return uuid.New().String()
}

// Log appends an entry to the audit log. Best-effort: operations never
// fail because audit logging failed, so errors are swallowed.
func Log(entry Entry) {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}
	if entry.User == "" {
		entry.User = configs.UserEnvaultSettings.Username
	}

	logPath := LogPath()
	if logPath == "" {
		return
	}

	// #nosec G306 -- the audit log carries no secrets and should be
	// readable by the team.
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = f.Write(append(data, '\n'))
}

// LogPath returns the path of the audit log, or empty when the working
// directory has no environments root to log under.
func LogPath() string {
	root := configs.EnvironmentsRoot()
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return ""
	}
	return filepath.Join(root, ".audit.jsonl")
}

// ReadEntries reads all entries from the audit log. A missing log reads
// as empty.
func ReadEntries() ([]Entry, error) {
	logPath := LogPath()
	if logPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries. Malformed
// lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
