// Package pathsyntax provides the low-level, host-aware building blocks
// shared by the pattern parser and the matcher VM: path-component
// tokenization and a lenient UTF-8 decoder.
//
// Neither the parser nor the VM owns this logic independently, because a
// glob pattern's leading "C:\" or "/" and a real filesystem path's leading
// "C:\" or "/" must be framed identically for the matcher's absolute-prefix
// fast start (see compile.Program.AbsolutePrefix) to make sense.
package pathsyntax

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Kind identifies the typed role of one path component.
type Kind uint8

const (
	KindPrefix Kind = iota
	KindRoot
	KindCurDir
	KindParentDir
	KindNormal
)

func (k Kind) String() string {
	switch k {
	case KindPrefix:
		return "Prefix"
	case KindRoot:
		return "RootDir"
	case KindCurDir:
		return "CurDir"
	case KindParentDir:
		return "ParentDir"
	case KindNormal:
		return "Normal"
	default:
		return "Unknown"
	}
}

// Component is one typed, separator-free segment of a path.
type Component struct {
	Kind Kind
	Text string // raw bytes of the component; empty for Root
}

// IsSeparator reports whether b is a path separator on the host platform.
func IsSeparator(b byte) bool {
	return b == '/' || rune(b) == filepath.Separator
}

// SplitPrefixRoot peels a platform-specific absolute prefix (e.g. a Windows
// drive letter) and/or a root separator off the front of s. It returns the
// prefix text (empty if absent), whether a root separator followed, and the
// remainder of s after both.
//
// This mirrors how the parser frames Phase 1 and how the VM
// frames an actual filesystem path before iterating its components, so the
// two agree on what counts as "the head" of a path.
func SplitPrefixRoot(s string) (prefix string, hasRoot bool, rest string) {
	if vol := filepath.VolumeName(s); vol != "" {
		prefix = vol
		s = s[len(vol):]
	}
	if len(s) > 0 && IsSeparator(s[0]) {
		hasRoot = true
		s = s[1:]
	}
	return prefix, hasRoot, s
}

// Components splits a path into its typed components, in order. The
// optional leading Prefix/Root are emitted first (at most one each),
// followed by one Normal/CurDir/ParentDir component per separator-delimited
// segment. Empty segments produced by repeated separators are skipped.
func Components(path string) []Component {
	prefix, hasRoot, rest := SplitPrefixRoot(path)

	var comps []Component
	if prefix != "" {
		comps = append(comps, Component{Kind: KindPrefix, Text: prefix})
	}
	if hasRoot {
		comps = append(comps, Component{Kind: KindRoot})
	}

	for _, seg := range strings.FieldsFunc(rest, func(r rune) bool { return r == '/' || r == filepath.Separator }) {
		switch seg {
		case ".":
			comps = append(comps, Component{Kind: KindCurDir})
		case "..":
			comps = append(comps, Component{Kind: KindParentDir})
		default:
			comps = append(comps, Component{Kind: KindNormal, Text: seg})
		}
	}
	return comps
}

// DecodeRune decodes one UTF-8 scalar from the head of b. Invalid leading
// bytes decode as a single replacement byte of width 1 rather than
// propagating an error: non-UTF-8 filenames are common on POSIX systems and
// must still advance the matcher one byte at a time.
func DecodeRune(b []byte) (r rune, size int) {
	return utf8.DecodeRune(b)
}
