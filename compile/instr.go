package compile

import (
	"fmt"

	"github.com/coregx/ahocorasick"
	"github.com/coregx/pathglob/ast"
)

// Op identifies one bytecode instruction.
type Op uint8

const (
	OpSeparator Op = iota
	OpPrefix
	OpRootDir
	OpCurDir
	OpParentDir
	OpLiteralString
	OpAnyCharacter
	OpAnyString
	OpCharacters
	OpJump
	OpAlternative
	OpIncrement
	OpBranchIfLessThan
	OpComplete
	// OpLiteralSet is the domain-stack acceleration of an all-literal
	// Alternatives group: one Aho-Corasick probe
	// instead of N-1 backtracking Alternative frames.
	OpLiteralSet
)

func (op Op) String() string {
	switch op {
	case OpSeparator:
		return "Separator"
	case OpPrefix:
		return "Prefix"
	case OpRootDir:
		return "RootDir"
	case OpCurDir:
		return "CurDir"
	case OpParentDir:
		return "ParentDir"
	case OpLiteralString:
		return "LiteralString"
	case OpAnyCharacter:
		return "AnyCharacter"
	case OpAnyString:
		return "AnyString"
	case OpCharacters:
		return "Characters"
	case OpJump:
		return "Jump"
	case OpAlternative:
		return "Alternative"
	case OpIncrement:
		return "Increment"
	case OpBranchIfLessThan:
		return "BranchIfLessThan"
	case OpComplete:
		return "Complete"
	case OpLiteralSet:
		return "LiteralSet"
	default:
		return fmt.Sprintf("Op(%d)", op)
	}
}

// LiteralSet is the Aho-Corasick side-table attached to an OpLiteralSet
// instruction: the original branch texts (for disassembly) plus the
// compiled automaton used at match time.
type LiteralSet struct {
	Branches  []string
	Automaton *ahocorasick.Automaton
}

// Instr is one bytecode instruction. Only the fields relevant to Op are
// populated.
type Instr struct {
	Op Op

	Text    string         // Prefix, LiteralString
	Classes []ast.CharRange // Characters
	Target  int             // Jump, Alternative, BranchIfLessThan, OpLiteralSet (continuation on match)
	Counter uint16          // Increment, BranchIfLessThan — narrowed from the builder's int via internal/conv
	Value   uint32          // BranchIfLessThan
	Literal *LiteralSet     // OpLiteralSet
}

// String renders one instruction for the `compile` CLI subcommand's
// disassembly: "NNN: opcode operands".
func (in Instr) String() string {
	switch in.Op {
	case OpPrefix, OpLiteralString:
		return fmt.Sprintf("%s %q", in.Op, in.Text)
	case OpCharacters:
		return fmt.Sprintf("%s %s", in.Op, classesString(in.Classes))
	case OpJump, OpAlternative:
		return fmt.Sprintf("%s %d", in.Op, in.Target)
	case OpIncrement:
		return fmt.Sprintf("%s c%d", in.Op, in.Counter)
	case OpBranchIfLessThan:
		return fmt.Sprintf("%s %d, c%d, %d", in.Op, in.Target, in.Counter, in.Value)
	case OpLiteralSet:
		return fmt.Sprintf("%s %v -> %d", in.Op, in.Literal.Branches, in.Target)
	default:
		return in.Op.String()
	}
}

func classesString(classes []ast.CharRange) string {
	s := "["
	for i, c := range classes {
		if i > 0 {
			s += " "
		}
		if c.Lo == c.Hi {
			s += string(c.Lo)
		} else {
			s += string(c.Lo) + "-" + string(c.Hi)
		}
	}
	return s + "]"
}
