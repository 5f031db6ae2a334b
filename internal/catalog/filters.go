package catalog

import (
	"path/filepath"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// Directories that never hold first-party mobile source: build outputs,
// dependency caches, IDE state.
var defaultExcludeDirs = map[string]bool{
	".git":         true,
	".dart_tool":   true,
	".gradle":      true,
	".idea":        true,
	".vscode":      true,
	"build":        true,
	"Pods":         true,
	"DerivedData":  true,
	"node_modules": true,
	".pub-cache":   true,
	"out":          true,
	"dist":         true,
	"vendor":       true,
	"coverage":     true,
	"__pycache__":  true,
}

var defaultExcludeFileSuffixes = []string{
	".min.js", ".map",
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".ico",
	".ttf", ".otf", ".woff", ".woff2",
	".pdf", ".zip", ".gz", ".tar", ".tgz", ".7z",
	".jar", ".aar", ".class", ".dex", ".so", ".dylib", ".a",
	".apk", ".aab", ".ipa", ".framework",
	".g.dart", ".freezed.dart", ".pb.go", ".gen.go",
}

var defaultExcludeFileNames = map[string]bool{
	"pubspec.lock":           true,
	"podfile.lock":           true,
	"package-lock.json":      true,
	"yarn.lock":              true,
	".ds_store":              true,
	".mobaudit_cache.json":   true,
	"mobaudit.baseline.json": true,
}

func isDefaultDirExcluded(name string) bool {
	return defaultExcludeDirs[name] || strings.HasPrefix(name, ".git")
}

func isDefaultFileExcluded(lowerRel string) bool {
	for _, s := range defaultExcludeFileSuffixes {
		if strings.HasSuffix(lowerRel, s) {
			return true
		}
	}
	if strings.Contains(lowerRel, ".gen.") {
		return true
	}
	base := lowerRel
	if i := strings.LastIndex(lowerRel, "/"); i >= 0 {
		base = lowerRel[i+1:]
	}
	return defaultExcludeFileNames[base]
}

// allowedByGlobs applies the include filter first (positive, when present)
// and subtracts excludes last. Matching uses forward-slash semantics.
func allowedByGlobs(relPath string, opts Options) bool {
	rp := strings.ReplaceAll(relPath, "\\", "/")
	includes := parseGlobsList(opts.IncludeGlobs)
	excludes := parseGlobsList(opts.ExcludeGlobs)
	if len(includes) > 0 && !matchAnyGlob(rp, includes) {
		return false
	}
	if len(excludes) > 0 && matchAnyGlob(rp, excludes) {
		return false
	}
	return true
}

func parseGlobsList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p, trimGlobPrefix(p))
		}
	}
	return out
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(pathToMatch)); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}
