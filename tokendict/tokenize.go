package tokendict

import "strings"

// operators are matched longest first before falling back to single bytes.
var operators = []string{
	">>>=", "<<=", ">>=", "...", "===", "!==", "**=", "&&=", "||=", "??=", "&^=",
	":=", "==", "!=", "<=", ">=", "&&", "||", "++", "--", "+=", "-=", "*=", "/=",
	"%=", "&=", "|=", "^=", "<<", ">>", "->", "=>", "::", "**", "??", "&^", "<-",
}

// Tokenize splits text into structure-aware tokens. Concatenating the
// result always yields text again.
func Tokenize(text string) []string {
	tokens := make([]string, 0, len(text)/3+1)
	for i := 0; i < len(text); {
		j := scan(text, i)
		tokens = append(tokens, text[i:j])
		i = j
	}
	return tokens
}

// scan returns the end of the token starting at i. It always advances.
func scan(s string, i int) int {
	n := len(s)
	c := s[i]
	switch {
	case c == '\n' || c == '\r':
		j := i
		for j < n && (s[j] == '\n' || s[j] == '\r') {
			j++
		}
		for j < n && isHorizontalSpace(s[j]) {
			j++
		}
		return j
	case isHorizontalSpace(c):
		j := i
		for j < n && isHorizontalSpace(s[j]) {
			j++
		}
		return j
	case c == '"' || c == '\'' || c == '`':
		return scanQuoted(s, i)
	case strings.HasPrefix(s[i:], "//") || c == '#':
		j := strings.IndexByte(s[i:], '\n')
		if j < 0 {
			return n
		}
		return i + j
	case strings.HasPrefix(s[i:], "/*"):
		j := strings.Index(s[i+2:], "*/")
		if j < 0 {
			return n
		}
		return i + 2 + j + 2
	case IsIdentStart(c):
		j := i + 1
		for j < n && IsIdentPart(s[j]) {
			j++
		}
		return j
	case IsDigit(c):
		j := i + 1
		for j < n && (IsIdentPart(s[j]) || s[j] == '.') {
			j++
		}
		return j
	}
	for _, op := range operators {
		if strings.HasPrefix(s[i:], op) {
			return i + len(op)
		}
	}
	return i + 1
}

// scanQuoted consumes a quoted literal starting at i. Backslash escapes one
// byte; double and single quoted literals stop at an unescaped newline.
func scanQuoted(s string, i int) int {
	quote := s[i]
	j := i + 1
	for j < len(s) {
		switch s[j] {
		case '\\':
			j += 2
			continue
		case quote:
			return j + 1
		case '\n':
			if quote != '`' {
				return j
			}
		}
		j++
	}
	return len(s)
}

func isHorizontalSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\v' || c == '\f'
}

// IsIdentStart reports whether c starts an identifier. Bytes of multi-byte
// UTF-8 sequences count as identifier bytes.
func IsIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

// IsIdentPart reports whether c continues an identifier.
func IsIdentPart(c byte) bool {
	return IsIdentStart(c) || IsDigit(c)
}

// IsDigit reports whether c is an ASCII digit.
func IsDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
