package secrets

import (
	"fmt"
	"os"

	"github.com/envault/envault/internal/gpg"
	logger "github.com/envault/envault/internal/logging"
)

// BundleOptions configures an edit or read session over one
// environment's secret files.
type BundleOptions struct {
	// Environment, when set, discovers the environment's sibling secret
	// files and registers them into the session.
	Environment string

	// WriteLock must be true if any file in the bundle will be
	// re-encrypted.
	WriteLock bool

	// Tool is the gpg adapter to use. Nil means a fresh quiet Tool.
	Tool *gpg.Tool

	// Log receives session diagnostics.
	Log logger.Logger
}

// Bundle ties the main secrets file, its membership document and every
// sibling secret file of an environment to one member list. All files
// registered in a bundle are encrypted for exactly the members named in
// the main file's [envault] section.
type Bundle struct {
	// Main is the structured main secrets file carrying the membership.
	Main *File

	doc       *Document
	files     map[string]*File
	paths     []string // registration order, main file first
	tool      *gpg.Tool
	writeLock bool
	log       logger.Logger
}

// Open starts a session on mainPath: the main file is locked and read,
// its membership parsed, and every sibling secret file of the
// environment locked and read into the session. On any failure all locks
// taken so far are released.
func Open(mainPath string, opts BundleOptions) (*Bundle, error) {
	tool := opts.Tool
	if tool == nil {
		tool = &gpg.Tool{Quiet: true, Log: opts.Log}
	}

	b := &Bundle{
		files:     make(map[string]*File),
		tool:      tool,
		writeLock: opts.WriteLock,
		log:       opts.Log,
	}

	main, err := b.AddFile(mainPath)
	if err != nil {
		return nil, err
	}
	b.Main = main

	if err := b.Refresh(); err != nil {
		b.unlockAll()
		return nil, err
	}

	if opts.Environment != "" {
		siblings, err := SecretFiles(opts.Environment)
		if err != nil {
			b.unlockAll()
			return nil, err
		}
		for _, path := range siblings {
			if _, err := b.AddFile(path); err != nil {
				b.unlockAll()
				return nil, err
			}
		}
	}

	return b, nil
}

// AddFile registers a secret file into the session, locking and reading
// it. Idempotent: a path already registered returns the existing handle.
// The path does not have to exist yet; a write session creates it and
// the handle reports IsNew.
func (b *Bundle) AddFile(path string) (*File, error) {
	if f, ok := b.files[path]; ok {
		return f, nil
	}

	b.log.Debugf("adding %s to session", path)
	f := NewFile(path, b.tool, b.writeLock, b.log)
	if err := f.Lock(); err != nil {
		return nil, err
	}
	if _, err := f.Read(); err != nil {
		f.Unlock()
		return nil, err
	}

	b.files[path] = f
	b.paths = append(b.paths, path)
	return f, nil
}

// Refresh re-derives the membership document from the main file's
// current cleartext. Called after the main file has been edited, so a
// syntactically broken edit surfaces before anything is encrypted.
func (b *Bundle) Refresh() error {
	cleartext, err := b.Main.Read()
	if err != nil {
		return err
	}
	doc, err := ParseDocument(cleartext)
	if err != nil {
		return err
	}
	// Normalize the owned field so a following Commit writes the
	// canonical one-entry-per-line form.
	doc.SetMembers(doc.Members())
	b.doc = doc
	return nil
}

// Members returns the current member list from the membership document.
func (b *Bundle) Members() []string {
	return b.doc.Members()
}

// SetMembers updates the membership document's owned field.
func (b *Bundle) SetMembers(members []string) {
	b.doc.SetMembers(members)
}

// Files returns the registered secret files in registration order, the
// main file first.
func (b *Bundle) Files() []*File {
	files := make([]*File, 0, len(b.paths))
	for _, path := range b.paths {
		files = append(files, b.files[path])
	}
	return files
}

// Commit serializes the membership document into the main file's
// cleartext, then re-encrypts every registered file for the current
// member list. Each file's write is individually atomic, but the set of
// writes is not transactional: a failure mid-way leaves the files
// written so far on the new member list and the rest on the old
// ciphertext. The error names the file that failed.
func (b *Bundle) Commit() error {
	b.Main.SetCleartext(b.doc.Serialize())

	members := b.doc.Members()
	for _, path := range b.paths {
		f := b.files[path]
		f.Recipients = members
		if err := f.Write(); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		b.log.Infof("encrypted %s for %d member(s)", path, len(members))
	}
	return nil
}

// Close releases every lock held by the session. When the membership is
// empty at this point the main ciphertext is deleted from disk: a bundle
// nobody can decrypt is treated as nonexistent rather than left behind
// as an unreadable orphan. Safe to call after a failed operation.
func (b *Bundle) Close() error {
	b.unlockAll()

	if b.doc != nil && len(b.doc.Members()) == 0 {
		b.log.Infof("membership is empty, deleting %s", b.Main.Path)
		if err := os.Remove(b.Main.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete defunct bundle %s: %w", b.Main.Path, err)
		}
	}
	return nil
}

func (b *Bundle) unlockAll() {
	for _, path := range b.paths {
		b.files[path].Unlock()
	}
}
