package rules

import (
	"bufio"
	"bytes"
	"strings"
)

const maxSnippet = 120

// Inline markers let developers suppress a match at the source level:
//
//	mobaudit:ignore            skip matches on this line
//	mobaudit:ignore-next-line  skip matches on the following line
//	mobaudit:ignore-start/-end skip a region
//	mobaudit:ignore-file       skip the whole file (checked here too)
const (
	markerIgnore     = "mobaudit:ignore"
	markerNextLine   = "mobaudit:ignore-next-line"
	markerStart      = "mobaudit:ignore-start"
	markerEnd        = "mobaudit:ignore-end"
	MarkerIgnoreFile = "mobaudit:ignore-file"
)

// EachLine iterates data line by line, honoring the inline ignore markers,
// and calls fn with 1-based line numbers for every scannable line.
func EachLine(data []byte, fn func(n int, text string)) {
	if bytes.Contains(data, []byte(MarkerIgnoreFile)) {
		return
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	inRegion := false
	skipNext := false
	for sc.Scan() {
		n++
		t := sc.Text()
		switch {
		case strings.Contains(t, markerStart):
			inRegion = true
			continue
		case strings.Contains(t, markerEnd):
			inRegion = false
			continue
		case inRegion:
			continue
		case strings.Contains(t, markerNextLine):
			skipNext = true
			continue
		case skipNext:
			skipNext = false
			continue
		case strings.Contains(t, markerIgnore):
			continue
		}
		fn(n, t)
	}
}

// Mask redacts a matched value leaving only the first and last four
// characters, so reports never carry a usable credential.
func Mask(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "…" + s[len(s)-4:]
}

// Truncate caps a snippet at n bytes.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
