// Package brewfile parses Homebrew Bundle manifests.
// Only the directives dotup acts on are recognized: tap, brew, cask, and
// mas. Unknown directives are preserved so the sync step can report drift
// without choking on extensions.
package brewfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// EntryKind identifies a Brewfile directive.
type EntryKind string

const (
	// KindTap is a `tap "user/repo"` directive.
	KindTap EntryKind = "tap"
	// KindFormula is a `brew "name"` directive.
	KindFormula EntryKind = "brew"
	// KindCask is a `cask "name"` directive.
	KindCask EntryKind = "cask"
	// KindMas is a `mas "App", id: 123` directive.
	KindMas EntryKind = "mas"
)

// Entry is a single Brewfile directive.
type Entry struct {
	// Kind is the directive type.
	Kind EntryKind
	// Name is the quoted token (tap name, formula name, cask token, or
	// App Store app name).
	Name string
	// Line is the 1-based line number in the source file.
	Line int
}

// Manifest is a parsed Brewfile.
type Manifest struct {
	// Entries holds every recognized directive in file order.
	Entries []Entry
	// Unknown counts lines that were neither blank, comments, nor
	// recognized directives.
	Unknown int
}

// Taps returns the tap names in file order.
func (m *Manifest) Taps() []string {
	var taps []string
	for _, e := range m.Entries {
		if e.Kind == KindTap {
			taps = append(taps, e.Name)
		}
	}
	return taps
}

// Casks returns the cask tokens in file order.
func (m *Manifest) Casks() []string {
	var casks []string
	for _, e := range m.Entries {
		if e.Kind == KindCask {
			casks = append(casks, e.Name)
		}
	}
	return casks
}

// Formulae returns the formula names in file order.
func (m *Manifest) Formulae() []string {
	var formulae []string
	for _, e := range m.Entries {
		if e.Kind == KindFormula {
			formulae = append(formulae, e.Name)
		}
	}
	return formulae
}

// HasCask reports whether the manifest lists the given cask token.
func (m *Manifest) HasCask(name string) bool {
	for _, e := range m.Entries {
		if e.Kind == KindCask && e.Name == name {
			return true
		}
	}
	return false
}

// ParseFile parses the Brewfile at path.
func ParseFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read Brewfile: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse parses a Brewfile from r.
func Parse(r io.Reader) (*Manifest, error) {
	manifest := &Manifest{}
	scanner := bufio.NewScanner(r)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		kind, rest, found := cutDirective(line)
		if !found {
			manifest.Unknown++
			continue
		}

		name, ok := firstQuoted(rest)
		if !ok {
			manifest.Unknown++
			continue
		}

		manifest.Entries = append(manifest.Entries, Entry{
			Kind: kind,
			Name: name,
			Line: lineNo,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan Brewfile: %w", err)
	}

	return manifest, nil
}

// cutDirective splits a line into a recognized directive and its remainder.
func cutDirective(line string) (EntryKind, string, bool) {
	for _, kind := range []EntryKind{KindTap, KindFormula, KindCask, KindMas} {
		prefix := string(kind) + " "
		if strings.HasPrefix(line, prefix) {
			return kind, line[len(prefix):], true
		}
	}
	return "", "", false
}

// firstQuoted extracts the first double- or single-quoted token.
func firstQuoted(s string) (string, bool) {
	for _, quote := range []byte{'"', '\''} {
		start := strings.IndexByte(s, quote)
		if start < 0 {
			continue
		}
		end := strings.IndexByte(s[start+1:], quote)
		if end < 0 {
			continue
		}
		return s[start+1 : start+1+end], true
	}
	return "", false
}
