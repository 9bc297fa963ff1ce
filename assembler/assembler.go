package assembler

import (
	"errors"
	"io"
	"path/filepath"

	"github.com/Urethramancer/pdp11/cpu"
	"github.com/Urethramancer/pdp11/deferred"
	"github.com/Urethramancer/pdp11/output"
)

// DefaultLink is the load address used when the source does not set one.
const DefaultLink = 0o1000

// maxIncludeDepth bounds .INCLUDE nesting.
const maxIncludeDepth = 64

// errEnd stops the current command stream.
var errEnd = errors.New(".END")

// write is one pending store into the memory image.
type write struct {
	addr deferred.Value
	// data resolves to a byte or a list of bytes.
	data deferred.Value
	pos  Position
}

// Assembler holds the state of one compilation session. It is not safe for
// concurrent use.
type Assembler struct {
	symbols *SymbolTable
	writes  []write
	build   []output.Artifact
	pc      deferred.Value
	link    deferred.Value
	project bool
	koi8r   bool
	fsys    FileSystem
	// files is the chain of files being assembled, outermost first.
	files []string
}

// New creates a new Assembler instance.
func New() *Assembler {
	return &Assembler{
		symbols: NewSymbolTable(),
		pc:      deferred.Int(DefaultLink),
		link:    deferred.Int(DefaultLink),
		fsys:    OS(),
	}
}

// SetLink sets the link address and the location counter. Call it before
// adding sources.
func (a *Assembler) SetLink(addr int) {
	a.pc = deferred.Int(addr)
	a.link = deferred.Int(addr)
}

// SetProject marks the session as part of a multi-file project. .LINK then
// moves the location counter without changing the link address.
func (a *Assembler) SetProject(project bool) {
	a.project = project
}

// SetFileSystem replaces the file system used for sources, includes and
// inserted files.
func (a *Assembler) SetFileSystem(fsys FileSystem) {
	a.fsys = fsys
}

// Symbols returns the session's symbol table.
func (a *Assembler) Symbols() *SymbolTable {
	return a.symbols
}

// AddFile reads and assembles a source file.
func (a *Assembler) AddFile(path string) error {
	data, err := a.fsys.ReadFile(path)
	if err != nil {
		return &Error{Kind: ErrIO, Msg: "Cannot read " + path + ": " + err.Error(), Err: err}
	}
	return a.compile(path, string(data))
}

// AddSource assembles src as if it were read from a file called name.
func (a *Assembler) AddSource(name, src string) error {
	return a.compile(name, src)
}

// Assemble is a shortcut for a single source linked at link: it adds src
// and returns the linked image bytes.
func (a *Assembler) Assemble(src string, link int) ([]byte, error) {
	a.SetLink(link)
	if err := a.AddSource("input", src); err != nil {
		return nil, err
	}
	img, err := a.Link()
	if err != nil {
		return nil, err
	}
	return img.Data, nil
}

func (a *Assembler) compile(file, src string) error {
	a.files = append(a.files, filepath.Clean(file))
	defer func() { a.files = a.files[:len(a.files)-1] }()

	p := NewParser(file, src)
	for {
		cmd, err := p.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		err = a.handle(cmd)
		if errors.Is(err, errEnd) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// handler executes one parsed command.
type handler func(a *Assembler, cmd *Command) error

var handlers map[Op]handler

func init() {
	handlers = map[Op]handler{
		OpNone:           func(*Assembler, *Command) error { return nil },
		OpInstruction:    (*Assembler).instruction,
		OpLink:           (*Assembler).linkDirective,
		OpInclude:        (*Assembler).include,
		OpPDP11:          func(*Assembler, *Command) error { return nil },
		OpI8080:          (*Assembler).i8080,
		OpSyntax:         (*Assembler).syntax,
		OpByte:           (*Assembler).bytes,
		OpWord:           (*Assembler).words,
		OpEnd:            func(*Assembler, *Command) error { return errEnd },
		OpBlkb:           (*Assembler).blkb,
		OpBlkw:           (*Assembler).blkw,
		OpEven:           (*Assembler).even,
		OpAlign:          (*Assembler).align,
		OpASCII:          (*Assembler).ascii,
		OpASCIZ:          (*Assembler).ascii,
		OpMakeRaw:        (*Assembler).makeArtifact,
		OpMakeBin:        (*Assembler).makeArtifact,
		OpConvertKOI8R:   (*Assembler).convertKOI8R,
		OpDecimalNumbers: func(*Assembler, *Command) error { return nil },
		OpInsertFile:     (*Assembler).insertFile,
		OpEqu:            (*Assembler).equ,
		OpRepeat:         (*Assembler).repeat,
	}
}

// handle defines the command's labels at the current location, then runs it.
func (a *Assembler) handle(cmd *Command) error {
	for _, label := range cmd.Labels {
		if err := a.symbols.Define(label, a.pc, cmd.Pos); err != nil {
			return err
		}
	}
	h, ok := handlers[cmd.Op]
	if !ok {
		return newError(cmd.Pos, ErrUnknownCommand, "Unknown command %s", cmd.Mnemonic)
	}
	return h(a, cmd)
}

func (a *Assembler) instruction(cmd *Command) error {
	ins, ok := cpu.Lookup(cmd.Mnemonic)
	if !ok {
		return newError(cmd.Pos, ErrUnknownCommand, "Unknown command %s", cmd.Mnemonic)
	}
	words, err := encodeInstruction(ins, cmd.Operands, a.pc, cmd.Pos)
	if err != nil {
		return err
	}
	for _, w := range words {
		a.writeWord(w, cmd.Pos)
	}
	return nil
}

// writeByte stores one byte at the location counter. Values in [-256, -1]
// are stored as their two's complement.
func (a *Assembler) writeByte(v deferred.Value, pos Position) {
	b := deferred.MapInt(v, func(n int) (int, error) {
		switch {
		case n >= 256:
			return 0, newError(pos, ErrRange, "Byte %s is too big", octal(n))
		case n < -256:
			return 0, newError(pos, ErrRange, "Byte %s is too small", octal(n))
		case n < 0:
			return n + 256, nil
		}
		return n, nil
	})
	a.writes = append(a.writes, write{addr: a.pc, data: b, pos: pos})
	a.pc = deferred.AddInt(a.pc, 1)
}

// writeWord stores a little-endian word at the location counter.
func (a *Assembler) writeWord(v deferred.Value, pos Position) {
	w := deferred.MapInt(v, func(n int) (int, error) {
		switch {
		case n >= 65536:
			return 0, newError(pos, ErrRange, "Word %s is too big", octal(n))
		case n < -65536:
			return 0, newError(pos, ErrRange, "Word %s is too small", octal(n))
		case n < 0:
			return n + 65536, nil
		}
		return n, nil
	})
	lo := deferred.MapInt(w, func(n int) (int, error) { return n & 0xFF, nil })
	hi := deferred.MapInt(w, func(n int) (int, error) { return n >> 8, nil })
	a.writes = append(a.writes,
		write{addr: a.pc, data: lo, pos: pos},
		write{addr: deferred.AddInt(a.pc, 1), data: hi, pos: pos},
	)
	a.pc = deferred.AddInt(a.pc, 2)
}

// writeBytes stores a list of bytes. The location counter stays lazy when the
// list length is not known yet.
func (a *Assembler) writeBytes(v deferred.Value, pos Position) {
	a.writes = append(a.writes, write{addr: a.pc, data: v, pos: pos})
	a.pc = deferred.Add(a.pc, deferred.Len(v))
}
