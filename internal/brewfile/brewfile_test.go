package brewfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleBrewfile = `# Taps
tap "homebrew/bundle"
tap "user/custom"

# CLI tools
brew "git"
brew "go", args: ["HEAD"]

# Apps
cask "docker"
cask 'iterm2'

# App Store
mas "Xcode", id: 497799835

vscode "golang.go"
`

func TestParse(t *testing.T) {
	manifest, err := Parse(strings.NewReader(sampleBrewfile))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if got := manifest.Taps(); len(got) != 2 || got[1] != "user/custom" {
		t.Errorf("unexpected taps: %v", got)
	}
	if got := manifest.Formulae(); len(got) != 2 || got[0] != "git" || got[1] != "go" {
		t.Errorf("unexpected formulae: %v", got)
	}
	if got := manifest.Casks(); len(got) != 2 || got[0] != "docker" || got[1] != "iterm2" {
		t.Errorf("unexpected casks: %v", got)
	}

	var mas []string
	for _, e := range manifest.Entries {
		if e.Kind == KindMas {
			mas = append(mas, e.Name)
		}
	}
	if len(mas) != 1 || mas[0] != "Xcode" {
		t.Errorf("unexpected mas entries: %v", mas)
	}

	// The vscode directive is not one dotup acts on
	if manifest.Unknown != 1 {
		t.Errorf("expected 1 unknown line, got %d", manifest.Unknown)
	}
}

func TestParse_LineNumbers(t *testing.T) {
	manifest, err := Parse(strings.NewReader("tap \"a/b\"\n\nbrew \"git\"\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if manifest.Entries[0].Line != 1 {
		t.Errorf("expected tap on line 1, got %d", manifest.Entries[0].Line)
	}
	if manifest.Entries[1].Line != 3 {
		t.Errorf("expected brew on line 3, got %d", manifest.Entries[1].Line)
	}
}

func TestParse_MalformedLines(t *testing.T) {
	// Directives without a quoted token are counted, not parsed
	manifest, err := Parse(strings.NewReader("brew git\ncask \"unterminated\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(manifest.Entries) != 0 {
		t.Errorf("expected no entries, got %v", manifest.Entries)
	}
	if manifest.Unknown != 2 {
		t.Errorf("expected 2 unknown lines, got %d", manifest.Unknown)
	}
}

func TestParse_Empty(t *testing.T) {
	manifest, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(manifest.Entries) != 0 || manifest.Unknown != 0 {
		t.Errorf("expected empty manifest, got %+v", manifest)
	}
}

func TestHasCask(t *testing.T) {
	manifest, err := Parse(strings.NewReader("cask \"docker\"\nbrew \"docker\"\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !manifest.HasCask("docker") {
		t.Error("expected docker cask to be found")
	}
	if manifest.HasCask("git") {
		t.Error("did not expect git cask")
	}
}

func TestParseFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "Brewfile")
	if err := os.WriteFile(path, []byte("cask \"docker\"\n"), 0644); err != nil {
		t.Fatalf("failed to write Brewfile: %v", err)
	}

	manifest, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if !manifest.HasCask("docker") {
		t.Error("expected docker cask")
	}

	if _, err := ParseFile(filepath.Join(tmpDir, "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
