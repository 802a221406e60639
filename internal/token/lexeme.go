package token

import "strings"

// Keywords maps every reserved word to its tag. None of these words is ever
// accepted as an identifier.
var Keywords = map[string]Tag{
	"module":   ModuleKeyword,
	"exposing": ExposingKeyword,
	"hiding":   HidingKeyword,
	"import":   ImportKeyword,
	"as":       AsKeyword,
	"fn":       FnKeyword,
	"case":     CaseKeyword,
	"if":       IfKeyword,
	"else":     ElseKeyword,
	"try":      TryKeyword,
	"catch":    CatchKeyword,
	"while":    WhileKeyword,
	"for":      ForKeyword,
	"in":       InKeyword,
	"var":      VarKeyword,
	"NaN":      NanKeyword,
	"Infinity": InfinityKeyword,
	"return":   ReturnKeyword,
}

// ReservedOps are operator lexemes with a dedicated grammar position. The
// generic operator production refuses them.
var ReservedOps = map[string]struct{}{
	":":  {},
	"->": {},
	"=>": {},
	"<-": {},
	"--": {}, // line comment
	"|":  {},
	"\\": {},
	"=":  {},
	".":  {},
	"::": {},
}

// Punctuation maps the fixed text of single-lexeme terminals.
var Punctuation = map[Tag]string{
	Dot:           ".",
	Comma:         ",",
	Colon:         ":",
	Underscore:    "_",
	LArrow:        "<-",
	RArrow:        "->",
	FatRArrow:     "=>",
	LParen:        "(",
	RParen:        ")",
	LSqBracket:    "[",
	RSqBracket:    "]",
	LCurlyBracket: "{",
	RCurlyBracket: "}",
	Backslash:     "\\",
	DoubleColon:   "::",
	Minus:         "-",
	Bar:           "|",
	Backtick:      "`",
	Equals:        "=",
	SingleQuote:   "'",
	DoubleQuote:   "\"",
}

// opChars is the operator character class used for maximal munch.
const opChars = "?<>=%\\~!@#$|&*/+^-:;"

// escapeChars may follow a backslash inside character and string literals.
const escapeChars = "'\"tvnrb0\\"

// IsOpChar reports whether r belongs to the operator character class.
func IsOpChar(r rune) bool {
	return strings.ContainsRune(opChars, r)
}

// IsKeyword reports whether word is reserved.
func IsKeyword(word string) bool {
	_, ok := Keywords[word]
	return ok
}

// IsReservedOp reports whether op has a dedicated grammar position.
func IsReservedOp(op string) bool {
	_, ok := ReservedOps[op]
	return ok
}

// OpChars returns the operator character class as a string.
func OpChars() string { return opChars }

// EscapeChars returns the characters allowed after a backslash.
func EscapeChars() string { return escapeChars }
