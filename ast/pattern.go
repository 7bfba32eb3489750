// Package ast defines the glob pattern abstract syntax tree produced by
// package parser and consumed by package compile. A Pattern is discarded
// once compiled; the tree itself carries no behavior.
package ast

import (
	"fmt"
	"strings"
)

// Kind identifies one AST node variant.
type Kind uint8

const (
	// Separator is a component boundary (/ or the platform equivalent).
	Separator Kind = iota
	// Prefix is a platform-specific absolute prefix. Valid only at position 0.
	Prefix
	// RootDir is the filesystem root. Valid only at position 0 or after Prefix.
	RootDir
	// CurDir is "." as an isolated component.
	CurDir
	// ParentDir is ".." as an isolated component.
	ParentDir
	// LiteralString is a raw byte run matched verbatim within one component.
	LiteralString
	// AnyCharacter matches exactly one UTF-8 scalar within a component.
	AnyCharacter
	// Wildcard matches zero or more characters within a single component.
	Wildcard
	// Recurse matches zero or more whole components, including separators.
	Recurse
	// Characters matches one character against a class of entries.
	Characters
	// Alternatives matches any one of N sub-patterns.
	Alternatives
	// Repeat matches its sub-pattern between Min and Max times inclusive.
	Repeat
)

func (k Kind) String() string {
	switch k {
	case Separator:
		return "Separator"
	case Prefix:
		return "Prefix"
	case RootDir:
		return "RootDir"
	case CurDir:
		return "CurDir"
	case ParentDir:
		return "ParentDir"
	case LiteralString:
		return "LiteralString"
	case AnyCharacter:
		return "AnyCharacter"
	case Wildcard:
		return "Wildcard"
	case Recurse:
		return "Recurse"
	case Characters:
		return "Characters"
	case Alternatives:
		return "Alternatives"
	case Repeat:
		return "Repeat"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// CharRange is one entry of a Characters class: a single scalar when
// Lo == Hi, an inclusive range otherwise.
type CharRange struct {
	Lo, Hi rune
}

// Contains reports whether r falls within the inclusive range [Lo, Hi].
func (cr CharRange) Contains(r rune) bool {
	return r >= cr.Lo && r <= cr.Hi
}

// RepeatSpec is the payload of a Repeat node.
type RepeatSpec struct {
	Min, Max uint32
	Body     Pattern
}

// Node is one AST element. Only the fields relevant to Kind are populated;
// see the Kind constants above for which.
type Node struct {
	Kind Kind

	Text    string      // Prefix, LiteralString
	Classes []CharRange // Characters
	Choices []Pattern   // Alternatives
	Repeat  RepeatSpec  // Repeat
}

// Pattern is an ordered sequence of AST nodes — the parser's output and the
// compiler's input.
type Pattern []Node

// HasParentDir reports whether the pattern contains a ParentDir node at any
// nesting depth, including inside Alternatives branches and Repeat bodies.
// The walker gates its synthetic ".." entry on this.
func (p Pattern) HasParentDir() bool {
	for _, n := range p {
		switch n.Kind {
		case ParentDir:
			return true
		case Alternatives:
			for _, choice := range n.Choices {
				if choice.HasParentDir() {
					return true
				}
			}
		case Repeat:
			if n.Repeat.Body.HasParentDir() {
				return true
			}
		}
	}
	return false
}

// Debug renders the tree in a compact, stable form intended for the `parse`
// CLI subcommand — not for round-tripping back into a pattern.
func (p Pattern) Debug() string {
	var b strings.Builder
	b.WriteString("Pattern[")
	for i, n := range p {
		if i > 0 {
			b.WriteString(", ")
		}
		n.debugInto(&b)
	}
	b.WriteString("]")
	return b.String()
}

func (n Node) debugInto(b *strings.Builder) {
	switch n.Kind {
	case LiteralString, Prefix:
		fmt.Fprintf(b, "%s(%q)", n.Kind, n.Text)
	case Characters:
		b.WriteString("Characters[")
		for i, c := range n.Classes {
			if i > 0 {
				b.WriteString(" ")
			}
			if c.Lo == c.Hi {
				fmt.Fprintf(b, "%c", c.Lo)
			} else {
				fmt.Fprintf(b, "%c-%c", c.Lo, c.Hi)
			}
		}
		b.WriteString("]")
	case Alternatives:
		b.WriteString("Alternatives{")
		for i, choice := range n.Choices {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(choice.Debug())
		}
		b.WriteString("}")
	case Repeat:
		fmt.Fprintf(b, "Repeat<%s:%d,%d>", n.Repeat.Body.Debug(), n.Repeat.Min, n.Repeat.Max)
	default:
		b.WriteString(n.Kind.String())
	}
}
