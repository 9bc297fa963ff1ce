package assembler

import (
	"fmt"
	"io"
	"strings"

	"github.com/Urethramancer/pdp11/cpu"
	"github.com/Urethramancer/pdp11/deferred"
)

// Parser turns source text into commands, one statement per line.
type Parser struct {
	file    string
	lines   []string
	next    int
	decimal bool
}

// NewParser creates a parser for src. file is used in positions and to
// resolve relative include paths.
func NewParser(file, src string) *Parser {
	return &Parser{
		file:  file,
		lines: strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n"),
	}
}

// File returns the name the parser was created with.
func (p *Parser) File() string {
	return p.file
}

// Next returns the next command, or io.EOF when the input is exhausted.
func (p *Parser) Next() (*Command, error) {
	cmd, closing, err := p.statement()
	if err != nil {
		return nil, err
	}
	if closing {
		return nil, p.syntaxError(cmd.Pos, "unexpected '}' outside of .REPEAT")
	}
	return cmd, nil
}

// statement parses the next non-empty line. closing is true for a line that
// only holds the '}' ending a .REPEAT body.
func (p *Parser) statement() (cmd *Command, closing bool, err error) {
	for p.next < len(p.lines) {
		text := p.lines[p.next]
		p.next++
		pos := Position{File: p.file, Line: p.next, Column: 1, Text: strings.TrimRight(text, " \t")}

		toks, err := tokenize(text)
		if err != nil {
			return nil, false, p.syntaxError(pos, "%v", err)
		}
		if len(toks) == 0 {
			continue
		}
		pos.Column = toks[0].Column
		if len(toks) == 1 && toks[0].is("}") {
			return &Command{Pos: pos}, true, nil
		}

		ts := &tokenStream{toks: toks, decimal: p.decimal}
		cmd, err := p.parseLine(ts, pos)
		if err != nil {
			return nil, false, err
		}
		return cmd, false, nil
	}
	return nil, false, io.EOF
}

func (p *Parser) parseLine(ts *tokenStream, pos Position) (*Command, error) {
	cmd := &Command{Pos: pos}

	// Labels: NAME:
	for {
		t, ok := ts.peek()
		colon, ok2 := ts.peekN(1)
		if !ok || !ok2 || t.Type != TokenIdent || !colon.is(":") || strings.HasPrefix(t.Value, ".") {
			break
		}
		if _, isReg := cpu.ParseRegister(t.Value); isReg {
			return nil, p.syntaxError(pos, "register %s used as a label", strings.ToUpper(t.Value))
		}
		cmd.Labels = append(cmd.Labels, strings.ToUpper(t.Value))
		ts.i += 2
	}

	t, ok := ts.next()
	if !ok {
		cmd.Op = OpNone
		return cmd, nil
	}
	cmd.Pos.Column = t.Column
	if t.Type != TokenIdent {
		return nil, p.syntaxError(cmd.Pos, "expected a command, found %q", t.Value)
	}
	name := strings.ToUpper(t.Value)

	// NAME = expression
	if ts.accept("=") {
		v, err := ts.expression()
		if err != nil {
			return nil, p.syntaxError(cmd.Pos, "%v", err)
		}
		cmd.Op, cmd.Mnemonic, cmd.Name, cmd.Values = OpEqu, ".EQU", name, []deferred.Value{v}
		return cmd, p.finish(ts, cmd)
	}

	cmd.Mnemonic = name
	if strings.HasPrefix(name, ".") {
		op, ok := directives[name]
		if !ok {
			return nil, newError(cmd.Pos, ErrUnknownCommand, "Unknown directive %s", name)
		}
		cmd.Op = op
		if err := p.parseDirective(ts, cmd); err != nil {
			return nil, err
		}
		return cmd, p.finish(ts, cmd)
	}

	cmd.Op = OpInstruction
	kinds := []OperandKind(nil)
	if ins, ok := cpu.Lookup(name); ok {
		kinds = operandKinds(ins.Class)
	}
	for i := 0; !ts.done(); i++ {
		if i > 0 {
			if err := ts.expect(","); err != nil {
				return nil, p.syntaxError(cmd.Pos, "%v", err)
			}
		}
		kind := OperandAddress
		if i < len(kinds) {
			kind = kinds[i]
		}
		op, err := ts.operand(kind)
		if err != nil {
			return nil, p.syntaxError(cmd.Pos, "%v", err)
		}
		cmd.Operands = append(cmd.Operands, op)
	}
	return cmd, nil
}

// operandKinds lists the operand shapes an instruction class expects.
func operandKinds(c cpu.Class) []OperandKind {
	switch c {
	case cpu.ClassBranch, cpu.ClassImmediate:
		return []OperandKind{OperandExpression}
	case cpu.ClassRTS:
		return []OperandKind{OperandRegister}
	case cpu.ClassSOB:
		return []OperandKind{OperandRegister, OperandExpression}
	case cpu.ClassRegister:
		return []OperandKind{OperandRegister, OperandAddress}
	case cpu.ClassRegisterSource:
		return []OperandKind{OperandAddress, OperandRegister}
	}
	return nil
}

func (p *Parser) parseDirective(ts *tokenStream, cmd *Command) error {
	fail := func(err error) error {
		return p.syntaxError(cmd.Pos, "%s: %v", cmd.Mnemonic, err)
	}

	switch cmd.Op {
	case OpLink, OpBlkb, OpBlkw, OpAlign:
		v, err := ts.expression()
		if err != nil {
			return fail(err)
		}
		cmd.Values = []deferred.Value{v}

	case OpByte, OpWord:
		for {
			v, err := ts.expression()
			if err != nil {
				return fail(err)
			}
			cmd.Values = append(cmd.Values, v)
			if !ts.accept(",") {
				break
			}
		}

	case OpInclude, OpInsertFile, OpASCII, OpASCIZ:
		t, ok := ts.next()
		if !ok || t.Type != TokenString {
			return fail(fmt.Errorf("expected a quoted string"))
		}
		cmd.Text = t.Value

	case OpMakeRaw, OpMakeBin:
		if t, ok := ts.peek(); ok && t.Type == TokenString {
			cmd.Text = t.Value
			ts.i++
		}

	case OpSyntax:
		t, ok := ts.next()
		if !ok || (t.Type != TokenIdent && t.Type != TokenString) {
			return fail(fmt.Errorf("expected a syntax name"))
		}
		cmd.Text = strings.ToLower(t.Value)

	case OpEqu:
		t, ok := ts.next()
		if !ok || t.Type != TokenIdent {
			return fail(fmt.Errorf("expected a name"))
		}
		if err := ts.expect(","); err != nil {
			return fail(err)
		}
		v, err := ts.expression()
		if err != nil {
			return fail(err)
		}
		cmd.Name = strings.ToUpper(t.Value)
		cmd.Values = []deferred.Value{v}

	case OpDecimalNumbers:
		p.decimal = true

	case OpRepeat:
		v, err := ts.expression()
		if err != nil {
			return fail(err)
		}
		cmd.Values = []deferred.Value{v}
		if !ts.accept("{") {
			if !ts.done() {
				return fail(fmt.Errorf("expected '{'"))
			}
			if err := p.openingBrace(cmd); err != nil {
				return err
			}
		}
		if !ts.done() {
			return fail(fmt.Errorf("the .REPEAT body starts on the next line"))
		}
		return p.repeatBody(cmd)
	}
	return nil
}

// openingBrace consumes a line holding only '{'.
func (p *Parser) openingBrace(cmd *Command) error {
	for p.next < len(p.lines) {
		toks, err := tokenize(p.lines[p.next])
		if err != nil {
			return p.syntaxError(cmd.Pos, "%v", err)
		}
		if len(toks) == 0 {
			p.next++
			continue
		}
		if len(toks) == 1 && toks[0].is("{") {
			p.next++
			return nil
		}
		break
	}
	return p.syntaxError(cmd.Pos, ".REPEAT: expected '{'")
}

func (p *Parser) repeatBody(cmd *Command) error {
	for {
		body, closing, err := p.statement()
		if err == io.EOF {
			return p.syntaxError(cmd.Pos, ".REPEAT: missing '}'")
		}
		if err != nil {
			return err
		}
		if closing {
			return nil
		}
		cmd.Body = append(cmd.Body, body)
	}
}

func (p *Parser) finish(ts *tokenStream, cmd *Command) error {
	if t, ok := ts.peek(); ok {
		return p.syntaxError(cmd.Pos, "%s: unexpected %q", cmd.Mnemonic, t.Value)
	}
	return nil
}

func (p *Parser) syntaxError(pos Position, format string, args ...any) error {
	return newError(pos, ErrSyntax, format, args...)
}

// operand parses one operand of the given kind.
func (s *tokenStream) operand(kind OperandKind) (Operand, error) {
	start := s.i
	var op Operand
	var err error
	switch kind {
	case OperandRegister:
		op, err = s.register()
	case OperandExpression:
		s.accept("#")
		op.Kind = OperandExpression
		op.Value, err = s.expression()
		op.HasValue = true
	default:
		op, err = s.address()
	}
	if err != nil {
		return op, err
	}
	if t, ok := s.peek(); ok && !t.is(",") {
		return op, fmt.Errorf("unexpected %q after operand", t.Value)
	}
	op.Raw = joinTokens(s.toks[start:s.i])
	return op, nil
}

func (s *tokenStream) register() (Operand, error) {
	t, ok := s.next()
	if !ok {
		return Operand{}, fmt.Errorf("expected a register")
	}
	r, ok := cpu.ParseRegister(t.Value)
	if t.Type != TokenIdent || !ok {
		return Operand{}, fmt.Errorf("expected a register, found %q", t.Value)
	}
	return Operand{Kind: OperandRegister, Mode: cpu.ModeRegister, Register: r}, nil
}

// isRegisterAt reports whether the token n places ahead names a register.
func (s *tokenStream) isRegisterAt(n int) (cpu.Register, bool) {
	t, ok := s.peekN(n)
	if !ok || t.Type != TokenIdent {
		return 0, false
	}
	return cpu.ParseRegister(t.Value)
}

func (s *tokenStream) punctAt(n int, punct string) bool {
	t, ok := s.peekN(n)
	return ok && t.is(punct)
}

// address parses a general addressing-mode operand.
func (s *tokenStream) address() (Operand, error) {
	op := Operand{Kind: OperandAddress}
	deferredMode := s.accept("@")
	var bump cpu.Mode
	if deferredMode {
		bump = 1
	}

	// #n, @#n
	if s.accept("#") {
		v, err := s.expression()
		if err != nil {
			return op, err
		}
		op.Mode, op.Register = cpu.ModeAutoIncrement+bump, cpu.PC
		op.Value, op.HasValue = v, true
		return op, nil
	}

	// -(Rn), @-(Rn)
	if s.punctAt(0, "-") && s.punctAt(1, "(") && s.punctAt(3, ")") {
		if r, ok := s.isRegisterAt(2); ok {
			s.i += 4
			op.Mode, op.Register = cpu.ModeAutoDecrement+bump, r
			return op, nil
		}
	}

	// (Rn), (Rn)+, @(Rn)+, @(Rn)
	if s.punctAt(0, "(") && s.punctAt(2, ")") {
		if r, ok := s.isRegisterAt(1); ok {
			s.i += 3
			op.Register = r
			switch {
			case s.accept("+"):
				op.Mode = cpu.ModeAutoIncrement + bump
			case deferredMode:
				op.Mode = cpu.ModeIndexDeferred
				op.Value, op.HasValue = deferred.Int(0), true
			default:
				op.Mode = cpu.ModeRegisterDeferred
			}
			return op, nil
		}
	}

	// Rn, @Rn
	if r, ok := s.isRegisterAt(0); ok {
		s.i++
		op.Mode, op.Register = cpu.ModeRegister+bump, r
		return op, nil
	}

	// e(Rn), @e(Rn), e, @e
	v, err := s.expression()
	if err != nil {
		return op, err
	}
	op.Value, op.HasValue = v, true
	op.Mode = cpu.ModeIndex + bump
	if s.punctAt(0, "(") && s.punctAt(2, ")") {
		if r, ok := s.isRegisterAt(1); ok {
			s.i += 3
			op.Register = r
			return op, nil
		}
	}
	op.Register = cpu.PC
	op.Relative = true
	return op, nil
}

func joinTokens(toks []Token) string {
	var b strings.Builder
	for _, t := range toks {
		if t.Type == TokenString {
			b.WriteString(fmt.Sprintf("%q", t.Value))
			continue
		}
		b.WriteString(t.Value)
	}
	return b.String()
}
