package assembler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Urethramancer/pdp11/cpu"
	"github.com/Urethramancer/pdp11/deferred"
)

// tokenStream walks the tokens of one statement.
type tokenStream struct {
	toks    []Token
	i       int
	decimal bool
}

func (s *tokenStream) peek() (Token, bool) {
	if s.i >= len(s.toks) {
		return Token{}, false
	}
	return s.toks[s.i], true
}

func (s *tokenStream) peekN(n int) (Token, bool) {
	if s.i+n >= len(s.toks) {
		return Token{}, false
	}
	return s.toks[s.i+n], true
}

func (s *tokenStream) next() (Token, bool) {
	t, ok := s.peek()
	if ok {
		s.i++
	}
	return t, ok
}

func (s *tokenStream) accept(punct string) bool {
	if t, ok := s.peek(); ok && t.is(punct) {
		s.i++
		return true
	}
	return false
}

func (s *tokenStream) expect(punct string) error {
	if s.accept(punct) {
		return nil
	}
	if t, ok := s.peek(); ok {
		return fmt.Errorf("expected %q, found %q", punct, t.Value)
	}
	return fmt.Errorf("expected %q at end of line", punct)
}

func (s *tokenStream) done() bool {
	return s.i >= len(s.toks)
}

// expression parses '+' and '-' over terms.
func (s *tokenStream) expression() (deferred.Value, error) {
	v, err := s.term()
	if err != nil {
		return v, err
	}
	for {
		switch {
		case s.accept("+"):
			r, err := s.term()
			if err != nil {
				return v, err
			}
			v = deferred.Add(v, r)
		case s.accept("-"):
			r, err := s.term()
			if err != nil {
				return v, err
			}
			v = deferred.Sub(v, r)
		default:
			return v, nil
		}
	}
}

// term parses '*' and '/' over unary expressions.
func (s *tokenStream) term() (deferred.Value, error) {
	v, err := s.unary()
	if err != nil {
		return v, err
	}
	for {
		switch {
		case s.accept("*"):
			r, err := s.unary()
			if err != nil {
				return v, err
			}
			v = deferred.Mul(v, r)
		case s.accept("/"):
			r, err := s.unary()
			if err != nil {
				return v, err
			}
			v = deferred.Div(v, r)
		default:
			return v, nil
		}
	}
}

func (s *tokenStream) unary() (deferred.Value, error) {
	switch {
	case s.accept("-"):
		v, err := s.unary()
		return deferred.Neg(v), err
	case s.accept("+"):
		return s.unary()
	}
	return s.primary()
}

func (s *tokenStream) primary() (deferred.Value, error) {
	t, ok := s.next()
	if !ok {
		return deferred.Value{}, fmt.Errorf("expected expression at end of line")
	}
	switch t.Type {
	case TokenNumber:
		n, err := parseNumber(t.Value, s.decimal)
		if err != nil {
			return deferred.Value{}, err
		}
		return deferred.Int(n), nil

	case TokenIdent:
		if _, ok := cpu.ParseRegister(t.Value); ok {
			return deferred.Value{}, fmt.Errorf("register %s used in an expression", strings.ToUpper(t.Value))
		}
		if strings.HasPrefix(t.Value, ".") {
			return deferred.Value{}, fmt.Errorf("unexpected directive %s", t.Value)
		}
		return deferred.Symbol(strings.ToUpper(t.Value)), nil

	case TokenString:
		r := []rune(t.Value)
		if len(r) != 1 {
			return deferred.Value{}, fmt.Errorf("string %q used in an expression", t.Value)
		}
		return deferred.Int(int(r[0])), nil

	case TokenPunct:
		if t.Value == "(" {
			v, err := s.expression()
			if err != nil {
				return v, err
			}
			return v, s.expect(")")
		}
	}
	return deferred.Value{}, fmt.Errorf("unexpected %q in expression", t.Value)
}

// parseNumber converts a numeric literal. Plain digits use the default radix
// (octal unless .DECIMALNUMBERS is in effect); a trailing dot forces decimal.
func parseNumber(text string, decimal bool) (int, error) {
	s := strings.ToLower(text)
	base := 8
	if decimal {
		base = 10
	}
	switch {
	case strings.HasSuffix(s, "."):
		s = strings.TrimSuffix(s, ".")
		base = 10
	case strings.HasPrefix(s, "0x"):
		s, base = s[2:], 16
	case strings.HasPrefix(s, "0o"):
		s, base = s[2:], 8
	case strings.HasPrefix(s, "0b"):
		s, base = s[2:], 2
	}
	n, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number format: %s", text)
	}
	return int(n), nil
}
