package token

import "fmt"

// Tag identifies what a syntax tree node represents.
//
// Structural tags describe a grammar category and never carry text.
// Terminal tags describe a leaf whose text is the verbatim matched lexeme.
type Tag int

const (
	// structural
	Root Tag = iota
	Prog
	ModDecl
	Import
	Line
	Expr
	Subexpr
	ChrLit
	StrLit
	FnDecl
	Parened
	Return
	Case
	IfElse
	Try
	While
	For
	Lambda
	TupleLit
	ListLit
	ListComp
	DictLit
	DictComp
	SetLit
	SetComp
	QualIdent
	NamespacedIdent
	MemberIdent
	ScopedIdent
	TypeIdent
	NumLit
	Infixed
	Var
	Assign
	Pattern
	Param
	Generator
	RealLit
	IntLit
	DictEntry
	CaseBranch

	// terminal
	Ident
	Op
	StrChr
	ChrChr
	AbsInt
	AbsReal
	Equals
	SingleQuote
	DoubleQuote

	// keywords
	ModuleKeyword
	ExposingKeyword
	HidingKeyword
	ImportKeyword
	AsKeyword
	FnKeyword
	CaseKeyword
	IfKeyword
	ElseKeyword
	TryKeyword
	CatchKeyword
	WhileKeyword
	ForKeyword
	InKeyword
	VarKeyword
	NanKeyword
	InfinityKeyword
	ReturnKeyword

	// punctuation and reserved operators
	Dot
	Comma
	Colon
	Underscore
	LArrow
	RArrow
	FatRArrow
	LParen
	RParen
	LSqBracket
	RSqBracket
	LCurlyBracket
	RCurlyBracket
	Backslash
	DoubleColon
	Minus
	Bar
	Backtick

	numTags
)

// firstTerminal marks the boundary between structural and terminal tags.
const firstTerminal = Ident

var tagNames = [numTags]string{
	Root:            "root",
	Prog:            "prog",
	ModDecl:         "modDecl",
	Import:          "import",
	Line:            "line",
	Expr:            "expr",
	Subexpr:         "subexpr",
	ChrLit:          "chrLit",
	StrLit:          "strLit",
	FnDecl:          "fnDecl",
	Parened:         "parened",
	Return:          "return",
	Case:            "case",
	IfElse:          "ifElse",
	Try:             "try",
	While:           "while",
	For:             "for",
	Lambda:          "lambda",
	TupleLit:        "tupleLit",
	ListLit:         "listLit",
	ListComp:        "listComp",
	DictLit:         "dictLit",
	DictComp:        "dictComp",
	SetLit:          "setLit",
	SetComp:         "setComp",
	QualIdent:       "qualIdent",
	NamespacedIdent: "namespacedIdent",
	MemberIdent:     "memberIdent",
	ScopedIdent:     "scopedIdent",
	TypeIdent:       "typeIdent",
	NumLit:          "numLit",
	Infixed:         "infixed",
	Var:             "var",
	Assign:          "assign",
	Pattern:         "pattern",
	Param:           "param",
	Generator:       "generator",
	RealLit:         "realLit",
	IntLit:          "intLit",
	DictEntry:       "dictEntry",
	CaseBranch:      "caseBranch",
	Ident:           "ident",
	Op:              "op",
	StrChr:          "strChr",
	ChrChr:          "chrChr",
	AbsInt:          "absInt",
	AbsReal:         "absReal",
	Equals:          "equals",
	SingleQuote:     "singleQuote",
	DoubleQuote:     "doubleQuote",
	ModuleKeyword:   "moduleKeyword",
	ExposingKeyword: "exposingKeyword",
	HidingKeyword:   "hidingKeyword",
	ImportKeyword:   "importKeyword",
	AsKeyword:       "asKeyword",
	FnKeyword:       "fnKeyword",
	CaseKeyword:     "caseKeyword",
	IfKeyword:       "ifKeyword",
	ElseKeyword:     "elseKeyword",
	TryKeyword:      "tryKeyword",
	CatchKeyword:    "catchKeyword",
	WhileKeyword:    "whileKeyword",
	ForKeyword:      "forKeyword",
	InKeyword:       "inKeyword",
	VarKeyword:      "varKeyword",
	NanKeyword:      "nanKeyword",
	InfinityKeyword: "infinityKeyword",
	ReturnKeyword:   "returnKeyword",
	Dot:             "dot",
	Comma:           "comma",
	Colon:           "colon",
	Underscore:      "underscore",
	LArrow:          "lArrow",
	RArrow:          "rArrow",
	FatRArrow:       "fatRArrow",
	LParen:          "lParen",
	RParen:          "rParen",
	LSqBracket:      "lSqBracket",
	RSqBracket:      "rSqBracket",
	LCurlyBracket:   "lCurlyBracket",
	RCurlyBracket:   "rCurlyBracket",
	Backslash:       "backslash",
	DoubleColon:     "doubleColon",
	Minus:           "minus",
	Bar:             "bar",
	Backtick:        "backtick",
}

func (t Tag) String() string {
	if t < 0 || t >= numTags {
		return fmt.Sprintf("Tag(%d)", int(t))
	}
	return tagNames[t]
}

// IsTerminal reports whether nodes with this tag are leaves carrying text.
func (t Tag) IsTerminal() bool {
	return t >= firstTerminal && t < numTags
}

// Valid reports whether t is a member of the enumeration.
func (t Tag) Valid() bool {
	return t >= 0 && t < numTags
}

// Lookup returns the tag with the given name.
func Lookup(name string) (Tag, bool) {
	for i, n := range tagNames {
		if n == name {
			return Tag(i), true
		}
	}
	return 0, false
}
