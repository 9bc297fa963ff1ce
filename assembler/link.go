package assembler

import (
	"fmt"

	"github.com/Urethramancer/pdp11/deferred"
	"github.com/Urethramancer/pdp11/output"
)

// AddressSpace is the size of the PDP-11 16-bit address space.
const AddressSpace = 0o200000

// Image is the result of linking.
type Image struct {
	// Build lists the artifacts requested with .MAKE_RAW and .MAKE_BIN.
	Build []output.Artifact
	// Data holds memory from the link address to the last byte written.
	Data    []byte
	Link    int
	Symbols map[string]int
}

// Link resolves every symbol and pending write and lays out the memory image.
func (a *Assembler) Link() (*Image, error) {
	if err := a.symbols.ResolveAll(); err != nil {
		return nil, err
	}

	var mem []byte
	for _, w := range a.writes {
		data, err := a.resolveBytes(w.data)
		if err != nil {
			return nil, annotate(err, w.pos)
		}
		addr, err := deferred.ResolveInt(w.addr, a.symbols)
		if err != nil {
			return nil, annotate(err, w.pos)
		}
		if addr < 0 || addr+len(data) > AddressSpace {
			return nil, newError(w.pos, ErrRange, "Address %s is outside the address space", octal(addr))
		}
		if end := addr + len(data); end > len(mem) {
			mem = append(mem, make([]byte, end-len(mem))...)
		}
		for i, b := range data {
			if b < 0 || b > 0xFF {
				return nil, newError(w.pos, ErrRange, "Byte %s is too big", octal(b))
			}
			mem[addr+i] = byte(b)
		}
	}

	link, err := deferred.ResolveInt(a.link, a.symbols)
	if err != nil {
		return nil, annotate(fmt.Errorf("link address: %w", err), Position{})
	}
	if link < 0 {
		return nil, newError(Position{}, ErrRange, "Link address %s is negative", octal(link))
	}

	img := &Image{
		Build:   append([]output.Artifact(nil), a.build...),
		Data:    []byte{},
		Link:    link,
		Symbols: a.symbols.Values(),
	}
	if link < len(mem) {
		img.Data = mem[link:]
	}
	return img, nil
}

// resolveBytes resolves a write payload, which is a single byte or a list.
func (a *Assembler) resolveBytes(v deferred.Value) ([]int, error) {
	x, err := deferred.Resolve(v, a.symbols, deferred.KindAny)
	if err != nil {
		return nil, err
	}
	switch x := x.(type) {
	case int:
		return []int{x}, nil
	case []int:
		return x, nil
	}
	return nil, fmt.Errorf("%w: expected bytes, got %T", deferred.ErrTypeMismatch, x)
}
