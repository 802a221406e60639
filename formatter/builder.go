package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"github.com/fatih/color"

	"github.com/brouwer-lang/brouwer/internal"
	tt "github.com/brouwer-lang/brouwer/internal/types"
)

const tabWidth = 8

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	kindStyle    = color.New(color.FgYellow, color.Bold)
	fileStyle    = color.New(color.FgCyan, color.Bold)
	lineStyle    = color.New(color.FgHiBlue, color.Bold)
	messageStyle = color.New(color.FgRed, color.Bold)
)

const diagnosticTemplate = `{{header .Kind .MaxLineNumWidth .Filename .StartLine .StartColumn}}
{{- if .HasSnippet}}
{{snippet .SnippetLines .StartLine .EndLine .MaxLineNumWidth .CommonIndent .Padding}}
{{- underlineAndMessage .Message .Padding .StartLine .EndLine .StartColumn .EndColumn .SnippetLines .CommonIndent}}
{{- else}}
{{message .Message .Padding}}
{{- end}}`

var diagnosticTmpl = template.Must(template.New("diagnostic").Funcs(template.FuncMap{
	"header":              header,
	"snippet":             codeSnippet,
	"underlineAndMessage": underlineAndMessage,
	"message":             message,
}).Parse(diagnosticTemplate))

// GenerateFormattedDiagnostics renders diags against the source they refer
// to, one block per diagnostic with the offending line and a caret.
func GenerateFormattedDiagnostics(diags []tt.Diagnostic, source *internal.SourceCode) string {
	var builder strings.Builder
	for _, d := range diags {
		builder.WriteString(buildDiagnostic(d, source))
		builder.WriteString("\n")
	}
	return builder.String()
}

type diagnosticData struct {
	Kind            string
	Filename        string
	Padding         string
	StartLine       int
	StartColumn     int
	EndLine         int
	EndColumn       int
	MaxLineNumWidth int
	Message         string
	HasSnippet      bool
	SnippetLines    []string
	CommonIndent    string
}

func buildDiagnostic(d tt.Diagnostic, source *internal.SourceCode) string {
	var lines []string
	if source != nil {
		lines = source.Lines
	}

	startLine, endLine := d.Start.Line, d.End.Line
	if endLine < startLine {
		endLine = startLine
	}
	endColumn := d.End.Column
	if endLine == startLine && endColumn < d.Start.Column {
		endColumn = d.Start.Column
	}

	maxLineNumWidth := calculateMaxLineNumWidth(endLine)
	hasSnippet := isValidLineRange(startLine, endLine, lines)

	var commonIndent string
	if hasSnippet {
		commonIndent = findCommonIndent(lines[startLine-1 : endLine])
	}

	data := diagnosticData{
		Kind:            d.Kind.String(),
		Filename:        d.Filename,
		Padding:         strings.Repeat(" ", maxLineNumWidth+1),
		StartLine:       startLine,
		StartColumn:     d.Start.Column,
		EndLine:         endLine,
		EndColumn:       endColumn,
		MaxLineNumWidth: maxLineNumWidth,
		Message:         d.Message,
		HasSnippet:      hasSnippet,
		SnippetLines:    lines,
		CommonIndent:    commonIndent,
	}

	var buf bytes.Buffer
	if err := diagnosticTmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting diagnostic: %v\n", err)
	}
	return buf.String()
}

func header(kind string, maxLineNumWidth int, filename string, startLine int, startColumn int) string {
	s := errorStyle.Sprint("error: ")
	s += kindStyle.Sprintf("%s\n", kind)

	s += lineStyle.Sprintf("%s--> ", strings.Repeat(" ", maxLineNumWidth))
	if startLine > 0 {
		s += fileStyle.Sprintf("%s:%d:%d", filename, startLine, startColumn)
	} else {
		s += fileStyle.Sprint(filename)
	}
	return s
}

func codeSnippet(snippetLines []string, startLine int, endLine int, maxLineNumWidth int, commonIndent string, padding string) string {
	s := lineStyle.Sprintf("%s|\n", padding)
	for i := startLine; i <= endLine; i++ {
		line := strings.TrimPrefix(snippetLines[i-1], commonIndent)
		s += lineStyle.Sprintf("%*d | ", maxLineNumWidth, i)
		s += line + "\n"
	}
	return s
}

func underlineAndMessage(msg string, padding string, startLine int, endLine int, startColumn int, endColumn int, snippetLines []string, commonIndent string) string {
	commonIndentWidth := calculateVisualColumn(commonIndent, len([]rune(commonIndent))+1)

	underlineStart := calculateVisualColumn(snippetLines[startLine-1], startColumn) - commonIndentWidth
	if underlineStart < 0 {
		underlineStart = 0
	}
	underlineEnd := calculateVisualColumn(snippetLines[endLine-1], endColumn) - commonIndentWidth
	underlineLength := underlineEnd - underlineStart + 1
	if underlineLength < 1 {
		underlineLength = 1
	}

	s := lineStyle.Sprintf("%s| ", padding)
	s += strings.Repeat(" ", underlineStart)
	s += messageStyle.Sprintf("%s\n", strings.Repeat("^", underlineLength))
	s += lineStyle.Sprintf("%s= ", padding)
	s += messageStyle.Sprintf("%s\n", msg)
	return s
}

func message(msg string, padding string) string {
	return lineStyle.Sprintf("%s= ", padding) + messageStyle.Sprintf("%s\n", msg)
}

func isValidLineRange(startLine int, endLine int, snippetLines []string) bool {
	return startLine > 0 &&
		endLine > 0 &&
		startLine <= endLine &&
		endLine <= len(snippetLines)
}

func calculateMaxLineNumWidth(endLine int) int {
	return len(fmt.Sprintf("%d", endLine))
}

// calculateVisualColumn returns the display offset of the 1-based rune
// column in line, expanding tabs.
func calculateVisualColumn(line string, column int) int {
	if column < 0 {
		return 0
	}
	visualColumn := 0
	i := 0
	for _, ch := range line {
		i++
		if i == column {
			break
		}
		if ch == '\t' {
			visualColumn += tabWidth - (visualColumn % tabWidth)
		} else {
			visualColumn++
		}
	}
	if column > i {
		visualColumn += column - i - 1
	}
	return visualColumn
}

// findCommonIndent finds the indentation shared by the non-blank lines.
func findCommonIndent(lines []string) string {
	var indent []rune
	found := false
	for _, line := range lines {
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		if trimmed == "" {
			continue
		}
		current := []rune(line[:len(line)-len(trimmed)])
		if !found {
			indent, found = current, true
			continue
		}
		indent = commonPrefix(indent, current)
		if len(indent) == 0 {
			break
		}
	}
	return string(indent)
}

// commonPrefix finds the common prefix of two rune slices.
func commonPrefix(a, b []rune) []rune {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:minLen]
}
