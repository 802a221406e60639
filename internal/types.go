package internal

import (
	"os"
	"strings"
)

// SourceCode stores the content of a source code file.
type SourceCode struct {
	Lines []string
}

// ReadSourceCode reads the content of a file and returns it as a `SourceCode` struct.
func ReadSourceCode(filename string) (*SourceCode, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return NewSourceCode(content), nil
}

// NewSourceCode splits content into lines, dropping carriage returns.
func NewSourceCode(content []byte) *SourceCode {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	return &SourceCode{Lines: strings.Split(text, "\n")}
}
