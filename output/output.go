// Package output writes linked images in the formats a build can request.
package output

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

// Kind is an output format.
type Kind string

const (
	// Raw is the bare memory image.
	Raw Kind = "raw"
	// Bin is the image behind a 4-byte header: load address and length, both
	// little-endian words.
	Bin Kind = "bin"
)

// Artifact is one requested output file. An empty Target means the default
// name with the kind as extension.
type Artifact struct {
	Kind   Kind
	Target string
}

// Encode renders data, loaded at link, in the given format.
func Encode(kind Kind, link int, data []byte) ([]byte, error) {
	switch kind {
	case Raw:
		return append([]byte(nil), data...), nil
	case Bin:
		if link < 0 || link > 0xFFFF {
			return nil, fmt.Errorf("load address %#o does not fit in a word", link)
		}
		if len(data) > 0xFFFF {
			return nil, fmt.Errorf("image of %d bytes is too long for a bin header", len(data))
		}
		out := make([]byte, 4, 4+len(data))
		binary.LittleEndian.PutUint16(out[0:], uint16(link))
		binary.LittleEndian.PutUint16(out[2:], uint16(len(data)))
		return append(out, data...), nil
	}
	return nil, fmt.Errorf("unknown output kind %q", kind)
}

// Path returns where art is written: Target relative to dir, or defaultName
// with the kind's extension.
func Path(dir, defaultName string, art Artifact) string {
	name := art.Target
	if name == "" {
		name = defaultName + "." + string(art.Kind)
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// Write encodes the image and writes it for art. It returns the path written.
func Write(dir, defaultName string, art Artifact, link int, data []byte) (string, error) {
	out, err := Encode(art.Kind, link, data)
	if err != nil {
		return "", err
	}
	path := Path(dir, defaultName, art)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
