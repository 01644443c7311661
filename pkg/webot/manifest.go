package webot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/pkoukk/tiktoken-go"
)

// Exclusion defaults for directory attachments. Build artifacts and VCS
// metadata never help a chat model and only inflate the upload.
var (
	defaultExcludeExts = map[string]bool{
		".pyc": true, ".pyo": true, ".so": true, ".o": true, ".a": true,
		".exe": true, ".dll": true, ".lib": true, ".bak": true, ".lock": true,
		".env": true, ".gitignore": true, ".gitattributes": true,
		".dockerignore": true, ".DS_Store": true,
	}

	defaultExcludeDirs = map[string]bool{
		".git": true, ".idea": true, ".vscode": true, "__pycache__": true,
		"node_modules": true, "venv": true, ".venv": true, "vendor": true,
		".mypy_cache": true, ".pytest_cache": true,
	}
)

const manifestSeparator = "============================================================"
const manifestRule = "------------------------------------------------------------"

// tokenEncoding is the BPE model used for the manifest token estimate.
const tokenEncoding = "cl100k_base"

// ManifestOptions controls which entries a directory manifest includes.
// Nil/empty fields fall back to the package defaults.
type ManifestOptions struct {
	// ExcludeDirs are directory names skipped entirely during recursion.
	ExcludeDirs []string

	// ExcludeExts are file extensions (or exact file names starting with
	// a dot) omitted from the tree and the path list.
	ExcludeExts []string

	// ExcludeGlobs are additional patterns matched against the
	// slash-separated path relative to the manifest root.
	ExcludeGlobs []string
}

// Manifest describes one directory attachment: the rendered structure
// document plus the validated absolute paths it covers.
type Manifest struct {
	Root          string
	Document      string
	Files         []string
	FileCount     int
	TotalSize     int64
	TokenEstimate int
}

// manifestBuilder carries the resolved exclusion state for one build.
type manifestBuilder struct {
	excludeDirs map[string]bool
	excludeExts map[string]bool
	globs       []glob.Glob
	now         func() time.Time
	countTokens func(string) int
}

func newManifestBuilder(opts ManifestOptions) (*manifestBuilder, error) {
	b := &manifestBuilder{
		excludeDirs: defaultExcludeDirs,
		excludeExts: defaultExcludeExts,
		now:         time.Now,
		countTokens: estimateTokens,
	}

	if len(opts.ExcludeDirs) > 0 {
		b.excludeDirs = toSet(opts.ExcludeDirs)
	}
	if len(opts.ExcludeExts) > 0 {
		b.excludeExts = toSet(opts.ExcludeExts)
	}
	for _, pattern := range opts.ExcludeGlobs {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		b.globs = append(b.globs, g)
	}
	return b, nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// BuildManifest walks a directory and renders its structure document:
// a sorted tree, the flat list of absolute file paths, and aggregate
// statistics. Excluded directories are never descended into.
func BuildManifest(dir string, opts ManifestOptions) (*Manifest, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", root)
	}

	b, err := newManifestBuilder(opts)
	if err != nil {
		return nil, err
	}
	return b.build(root)
}

func (b *manifestBuilder) build(root string) (*Manifest, error) {
	m := &Manifest{Root: root}

	var doc strings.Builder
	doc.WriteString(manifestSeparator + "\n")
	fmt.Fprintf(&doc, "Directory: %s\n", root)
	fmt.Fprintf(&doc, "Generated: %s\n", b.now().Format("2006-01-02 15:04:05"))
	doc.WriteString(manifestSeparator + "\n\n")

	doc.WriteString("Structure:\n.\n")
	if err := b.writeTree(&doc, root, root, ""); err != nil {
		return nil, err
	}

	doc.WriteString("\n" + manifestRule + "\n\n")
	doc.WriteString("Files:\n")
	if err := b.collectFiles(&doc, root, m); err != nil {
		return nil, err
	}

	doc.WriteString("\n" + manifestSeparator + "\n")
	doc.WriteString("Summary:\n")
	fmt.Fprintf(&doc, "  Files: %d\n", m.FileCount)
	fmt.Fprintf(&doc, "  Total size: %s\n", formatSize(m.TotalSize))
	doc.WriteString(manifestSeparator + "\n")

	m.Document = doc.String()
	m.TokenEstimate = b.countTokens(m.Document)
	return m, nil
}

// writeTree renders one directory level with box-drawing connectors.
// Directories sort before files, both case-insensitively.
func (b *manifestBuilder) writeTree(doc *strings.Builder, root, dir, prefix string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, entry := range entries {
		if b.excluded(root, filepath.Join(dir, entry.Name()), entry.IsDir()) {
			continue
		}
		kept = append(kept, entry)
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].IsDir() != kept[j].IsDir() {
			return kept[i].IsDir()
		}
		return strings.ToLower(kept[i].Name()) < strings.ToLower(kept[j].Name())
	})

	for i, entry := range kept {
		last := i == len(kept)-1
		connector := "├── "
		childPrefix := prefix + "│   "
		if last {
			connector = "└── "
			childPrefix = prefix + "    "
		}

		if entry.IsDir() {
			fmt.Fprintf(doc, "%s%s%s/\n", prefix, connector, entry.Name())
			if err := b.writeTree(doc, root, filepath.Join(dir, entry.Name()), childPrefix); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(doc, "%s%s%s\n", prefix, connector, entry.Name())
		}
	}
	return nil
}

// collectFiles appends the absolute path list and accumulates stats.
func (b *manifestBuilder) collectFiles(doc *strings.Builder, root string, m *Manifest) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if b.excluded(root, path, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		fmt.Fprintf(doc, "%s\n", path)
		m.Files = append(m.Files, path)
		m.FileCount++
		if info, err := d.Info(); err == nil {
			m.TotalSize += info.Size()
		}
		return nil
	})
}

func (b *manifestBuilder) excluded(root, path string, isDir bool) bool {
	name := filepath.Base(path)
	if isDir {
		if b.excludeDirs[name] {
			return true
		}
	} else {
		if b.excludeExts[strings.ToLower(filepath.Ext(name))] || b.excludeExts[name] {
			return true
		}
	}

	if len(b.globs) > 0 {
		rel, err := filepath.Rel(root, path)
		if err == nil {
			rel = filepath.ToSlash(rel)
			for _, g := range b.globs {
				if g.Match(rel) {
					return true
				}
			}
		}
	}
	return false
}

// formatSize renders a byte count in the largest fitting unit.
func formatSize(size int64) string {
	value := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if value < 1024.0 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024.0
	}
	return fmt.Sprintf("%.1f TB", value)
}

// estimateTokens sizes the manifest document in model tokens so oversized
// directory attachments can be spotted in the logs. The estimate is best
// effort: an unavailable encoding yields zero.
func estimateTokens(text string) int {
	enc, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		return 0
	}
	return len(enc.Encode(text, nil, nil))
}
