package assembler

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType classifies a lexical token.
type TokenType int

const (
	TokenIdent TokenType = iota
	TokenNumber
	TokenString
	TokenPunct
)

// Token is one lexical element of a line.
type Token struct {
	Type  TokenType
	Value string
	// Column is 1-based.
	Column int
}

func (t Token) is(punct string) bool {
	return t.Type == TokenPunct && t.Value == punct
}

const punctuation = ",:=()+-*/#@{}"

// tokenize splits one source line into tokens, dropping comments.
func tokenize(line string) ([]Token, error) {
	var tokens []Token
	runes := []rune(line)
	for i := 0; i < len(runes); {
		c := runes[i]
		col := i + 1
		switch {
		case c == ';':
			return tokens, nil

		case unicode.IsSpace(c):
			i++

		case c == '"' || c == '\'':
			s, n, err := scanString(runes[i:])
			if err != nil {
				return nil, fmt.Errorf("column %d: %w", col, err)
			}
			tokens = append(tokens, Token{Type: TokenString, Value: s, Column: col})
			i += n

		case unicode.IsDigit(c):
			j := i + 1
			for j < len(runes) && (isIdentChar(runes[j])) {
				j++
			}
			// Trailing dot marks a decimal number.
			if j < len(runes) && runes[j] == '.' {
				j++
			}
			tokens = append(tokens, Token{Type: TokenNumber, Value: string(runes[i:j]), Column: col})
			i = j

		case isIdentStart(c) || (c == '.' && i+1 < len(runes) && isIdentStart(runes[i+1])):
			j := i + 1
			for j < len(runes) && isIdentChar(runes[j]) {
				j++
			}
			tokens = append(tokens, Token{Type: TokenIdent, Value: string(runes[i:j]), Column: col})
			i = j

		case strings.ContainsRune(punctuation, c):
			tokens = append(tokens, Token{Type: TokenPunct, Value: string(c), Column: col})
			i++

		default:
			return nil, fmt.Errorf("column %d: unexpected character %q", col, c)
		}
	}
	return tokens, nil
}

// scanString reads a quoted string starting at r[0] and returns its value and
// the number of runes consumed.
func scanString(r []rune) (string, int, error) {
	quote := r[0]
	var b strings.Builder
	for i := 1; i < len(r); i++ {
		c := r[i]
		if c == quote {
			return b.String(), i + 1, nil
		}
		if c != '\\' {
			b.WriteRune(c)
			continue
		}
		i++
		if i >= len(r) {
			break
		}
		switch r[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '0':
			b.WriteByte(0)
		default:
			b.WriteRune(r[i])
		}
	}
	return "", 0, fmt.Errorf("unterminated string")
}

func isIdentStart(c rune) bool {
	return c == '_' || c == '$' || (c < unicode.MaxASCII && unicode.IsLetter(c))
}

func isIdentChar(c rune) bool {
	return isIdentStart(c) || unicode.IsDigit(c)
}
