package secrets

import (
	"fmt"
	"sort"
	"strings"

	enverrors "github.com/envault/envault/internal/errors"
)

// NewFileTemplate is the cleartext a brand-new main file starts from.
const NewFileTemplate = "[envault]\nmembers =\n"

const (
	sectionName = "envault"
	memberKey   = "members"
)

// Document is a structured-text view of the main file's cleartext. It
// owns exactly one field, the members key of the [envault] section;
// everything else is an opaque remainder that Serialize reproduces
// byte-for-byte. A missing section or key is created on parse, so a
// membership always exists even for hand-stripped files.
type Document struct {
	lines []string

	// Owned line ranges, maintained by locate and SetMembers.
	sectionIdx int
	keyIdx     int
	keyEnd     int // first line after the key's continuations
}

// ParseDocument parses cleartext into a Document. Empty cleartext parses
// as the new-file template. It fails only when the owned structure is
// ambiguous: a duplicated [envault] section or a duplicated members key.
func ParseDocument(text string) (*Document, error) {
	if text == "" {
		text = NewFileTemplate
	}
	d := &Document{lines: strings.Split(text, "\n")}

	if err := d.locate(); err != nil {
		return nil, err
	}
	if d.sectionIdx < 0 {
		d.insert(d.insertionPoint(), "["+sectionName+"]", memberKey+" =")
		if err := d.locate(); err != nil {
			return nil, err
		}
	} else if d.keyIdx < 0 {
		d.insert(d.sectionEnd(), memberKey+" =")
		if err := d.locate(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Members returns the current member list: split on commas, trimmed,
// empty entries dropped, sorted alphabetically. Duplicates are kept;
// whoever writes the file is expected to keep entries unique.
func (d *Document) Members() []string {
	var parts []string
	for i := d.keyIdx; i < d.keyEnd; i++ {
		line := d.lines[i]
		if i == d.keyIdx {
			_, value, _ := strings.Cut(line, "=")
			line = value
		}
		parts = append(parts, strings.Split(line, ",")...)
	}

	var members []string
	for _, part := range parts {
		if member := strings.TrimSpace(part); member != "" {
			members = append(members, member)
		}
	}
	sort.Strings(members)
	return members
}

// SetMembers rewrites the owned members value in place, one entry per
// line indented under the key. No other line of the document is touched.
func (d *Document) SetMembers(members []string) {
	var cleaned []string
	for _, member := range members {
		if member = strings.TrimSpace(member); member != "" {
			cleaned = append(cleaned, member)
		}
	}

	var rendered []string
	switch len(cleaned) {
	case 0:
		rendered = []string{memberKey + " ="}
	default:
		for i, member := range cleaned {
			switch {
			case i == 0 && len(cleaned) == 1:
				rendered = []string{memberKey + " = " + member}
			case i == 0:
				rendered = []string{memberKey + " = " + member + ","}
			case i == len(cleaned)-1:
				rendered = append(rendered, "\t"+member)
			default:
				rendered = append(rendered, "\t"+member+",")
			}
		}
	}

	tail := append([]string{}, d.lines[d.keyEnd:]...)
	d.lines = append(d.lines[:d.keyIdx], append(rendered, tail...)...)
	d.keyEnd = d.keyIdx + len(rendered)
}

// Serialize renders the document back to cleartext.
func (d *Document) Serialize() string {
	return strings.Join(d.lines, "\n")
}

// locate scans for the owned section and key. Missing parts are reported
// as -1; duplicated parts are an error.
func (d *Document) locate() error {
	d.sectionIdx, d.keyIdx, d.keyEnd = -1, -1, -1

	inSection := false
	for i, line := range d.lines {
		if name, ok := sectionHeader(line); ok {
			if name == sectionName {
				if d.sectionIdx >= 0 {
					return fmt.Errorf("%w: duplicate [%s] section", enverrors.ErrMembershipParse, sectionName)
				}
				d.sectionIdx = i
				inSection = true
			} else {
				inSection = false
			}
			continue
		}
		if !inSection {
			continue
		}
		if key, ok := keyLine(line); ok && key == memberKey {
			if d.keyIdx >= 0 {
				return fmt.Errorf("%w: duplicate %s key", enverrors.ErrMembershipParse, memberKey)
			}
			d.keyIdx = i
			d.keyEnd = i + 1
			for d.keyEnd < len(d.lines) && continuation(d.lines[d.keyEnd]) {
				d.keyEnd++
			}
		}
	}
	return nil
}

// sectionEnd returns the line index just past the [envault] section,
// where a missing members key is inserted.
func (d *Document) sectionEnd() int {
	for i := d.sectionIdx + 1; i < len(d.lines); i++ {
		if _, ok := sectionHeader(d.lines[i]); ok {
			return i
		}
	}
	return d.insertionPoint()
}

// insertionPoint returns the end of the document, before a trailing
// newline's empty split element if present.
func (d *Document) insertionPoint() int {
	if n := len(d.lines); n > 0 && d.lines[n-1] == "" {
		return n - 1
	}
	return len(d.lines)
}

func (d *Document) insert(at int, inserted ...string) {
	tail := append([]string{}, d.lines[at:]...)
	d.lines = append(d.lines[:at], append(inserted, tail...)...)
}

func sectionHeader(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) >= 2 && trimmed[0] == '[' && trimmed[len(trimmed)-1] == ']' {
		return trimmed[1 : len(trimmed)-1], true
	}
	return "", false
}

// keyLine reports whether line is a "key = value" assignment starting at
// column zero, and returns the key.
func keyLine(line string) (string, bool) {
	if line == "" || line[0] == ' ' || line[0] == '\t' {
		return "", false
	}
	if line[0] == '#' || line[0] == ';' {
		return "", false
	}
	key, _, found := strings.Cut(line, "=")
	if !found {
		return "", false
	}
	return strings.TrimSpace(key), true
}

// continuation reports whether line extends the value of the preceding
// key: indented and not blank.
func continuation(line string) bool {
	if line == "" {
		return false
	}
	return (line[0] == ' ' || line[0] == '\t') && strings.TrimSpace(line) != ""
}
