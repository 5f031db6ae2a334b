package catalog

import (
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Role classifies a cataloged file by what the scanners can do with it.
type Role string

const (
	RoleSource         Role = "source"          // application source (.dart, .kt, .java, .swift, ...)
	RoleManifest       Role = "manifest"        // declarative dependency manifest (pubspec.yaml)
	RolePlatformConfig Role = "platform-config" // AndroidManifest.xml, network_security_config, other xml
	RolePlist          Role = "plist"           // iOS property lists
	RoleBuildConfig    Role = "build-config"    // gradle scripts, *.properties
	RoleConfig         Role = "config"          // generic json/yaml/env configuration
	RoleOther          Role = "other"
)

// PathError reports an unusable scan root. It is the only fatal error class
// for a scan invocation.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string { return fmt.Sprintf("scan root %s: %v", e.Path, e.Err) }
func (e *PathError) Unwrap() error { return e.Err }

// File is one catalog entry. Content is loaded lazily on first access and
// cached for the lifetime of the catalog.
type File struct {
	Path string // relative to root, forward slashes
	Abs  string
	Role Role
	Size int64

	once sync.Once
	data []byte
	err  error
}

// Content reads and caches the file bytes. The read error, if any, is also
// cached so repeated calls are stable. Safe for concurrent callers: the
// four scanners share one catalog snapshot.
func (f *File) Content() ([]byte, error) {
	f.once.Do(func() {
		f.data, f.err = os.ReadFile(f.Abs)
	})
	return f.data, f.err
}

// Skip records a file the catalog or a scanner could not analyze.
type Skip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Options narrows which files enter the catalog.
type Options struct {
	IncludeGlobs    string // comma-separated doublestar globs; empty = all
	ExcludeGlobs    string
	MaxBytes        int64 // skip files larger than this; 0 = default 1 MiB
	DefaultExcludes bool  // apply built-in exclude list (build outputs, caches)
}

// Catalog is the read-only file inventory for one scan. Once built it is
// safe for concurrent readers.
type Catalog struct {
	Root    string
	Files   []*File
	Skipped []Skip
}

const defaultMaxBytes = 1 << 20

// Build walks root and produces a catalog of eligible files. A missing or
// unreadable root yields a *PathError; individually unreadable files are
// recorded in Skipped and the walk continues.
func Build(root string, opts Options) (*Catalog, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &PathError{Path: root, Err: err}
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, &PathError{Path: root, Err: err}
	}
	if !st.IsDir() {
		return nil, &PathError{Path: root, Err: fmt.Errorf("not a directory")}
	}
	if _, err := os.ReadDir(abs); err != nil {
		return nil, &PathError{Path: root, Err: err}
	}

	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}

	cat := &Catalog{Root: abs}
	walkErr := filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if rel, rerr := filepath.Rel(abs, p); rerr == nil && rel != "." {
				cat.Skipped = append(cat.Skipped, Skip{Path: filepath.ToSlash(rel), Reason: err.Error()})
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if opts.DefaultExcludes && isDefaultDirExcluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, _ := filepath.Rel(abs, p)
		rel = filepath.ToSlash(rel)
		if !allowedByGlobs(rel, opts) {
			return nil
		}
		lower := strings.ToLower(rel)
		if opts.DefaultExcludes && isDefaultFileExcluded(lower) {
			return nil
		}
		info, ierr := d.Info()
		if ierr != nil {
			cat.Skipped = append(cat.Skipped, Skip{Path: rel, Reason: ierr.Error()})
			return nil
		}
		if info.Size() > maxBytes {
			return nil
		}
		cat.Files = append(cat.Files, &File{
			Path: rel,
			Abs:  p,
			Role: classify(rel),
			Size: info.Size(),
		})
		return nil
	})
	if walkErr != nil {
		return nil, &PathError{Path: root, Err: walkErr}
	}
	return cat, nil
}

// ByRole returns the files carrying any of the given roles, in walk order.
func (c *Catalog) ByRole(roles ...Role) []*File {
	want := map[Role]bool{}
	for _, r := range roles {
		want[r] = true
	}
	var out []*File
	for _, f := range c.Files {
		if want[f.Role] {
			out = append(out, f)
		}
	}
	return out
}

func classify(rel string) Role {
	base := strings.ToLower(filepath.Base(rel))
	switch base {
	case "pubspec.yaml":
		return RoleManifest
	case "androidmanifest.xml":
		return RolePlatformConfig
	}
	switch strings.ToLower(filepath.Ext(rel)) {
	case ".dart", ".kt", ".kts", ".java", ".swift", ".m", ".mm", ".go", ".js", ".ts":
		return RoleSource
	case ".plist":
		return RolePlist
	case ".xml":
		return RolePlatformConfig
	case ".gradle", ".properties":
		return RoleBuildConfig
	case ".json", ".yaml", ".yml", ".env", ".cfg", ".conf", ".ini":
		return RoleConfig
	}
	if strings.HasPrefix(base, ".env") {
		return RoleConfig
	}
	return RoleOther
}

// LooksBinary sniffs a small prefix for NUL bytes to skip non-text content
// the extension filters missed.
func LooksBinary(b []byte) bool {
	const sniff = 800
	n := sniff
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if b[i] == 0 {
			return true
		}
	}
	return false
}

// LooksNonTextMIME flags clearly non-text content by extension and a tiny
// header sniff, in addition to NUL-byte detection.
func LooksNonTextMIME(path string, b []byte) bool {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		if strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/") || strings.HasPrefix(ct, "audio/") {
			return true
		}
		if strings.Contains(ct, "zip") || strings.Contains(ct, "tar") || strings.Contains(ct, "gzip") {
			return true
		}
	}
	if len(b) >= 8 && string(b[:8]) == "\x89PNG\r\n\x1a\n" {
		return true
	}
	if len(b) >= 2 && b[0] == 'P' && b[1] == 'K' {
		return true
	}
	return false
}
