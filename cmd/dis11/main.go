package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/Urethramancer/pdp11/disassembler"
	"github.com/grimdork/climate/arg"
)

func main() {
	opt := arg.New("dis11")
	opt.SetDefaultHelp(true)
	opt.SetOption(arg.GroupDefault, "b", "base", "Load address of the image (octal).", "1000", false, arg.VarString, nil)
	opt.SetOption(arg.GroupDefault, "H", "header", "Read the load address from a bin header.", false, false, arg.VarBool, nil)
	opt.SetOption(arg.GroupDefault, "L", "listing", "Print a listing instead of source.", false, false, arg.VarBool, nil)
	opt.SetPositional("INPUT", "Image to disassemble.", "", true, arg.VarString)
	opt.SetPositional("OUTPUT", "File to write; standard output if omitted.", "", false, arg.VarString)

	err := opt.Parse(os.Args[1:])
	if err != nil {
		if errors.Is(err, arg.ErrNoArgs) {
			opt.PrintHelp()
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if opt.GetBool("help") {
		opt.PrintHelp()
		return
	}

	inputFile := opt.GetPosString("INPUT")
	code, err := os.ReadFile(inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
		os.Exit(1)
	}

	b, err := strconv.ParseInt(opt.GetString("base"), 8, 32)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid base address: %v\n", err)
		os.Exit(1)
	}
	base := int(b)

	if opt.GetBool("header") {
		if len(code) < 4 {
			fmt.Fprintln(os.Stderr, "Input is too short for a bin header")
			os.Exit(1)
		}
		base = int(binary.LittleEndian.Uint16(code[0:]))
		n := int(binary.LittleEndian.Uint16(code[2:]))
		code = code[4:]
		if n < len(code) {
			code = code[:n]
		}
	}

	var text string
	if opt.GetBool("listing") {
		lines, err := disassembler.Disassemble(code, base)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Disassembly error: %v\n", err)
			os.Exit(1)
		}
		text = disassembler.Format(lines)
	} else {
		text, err = disassembler.Source(code, base)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Disassembly error: %v\n", err)
			os.Exit(1)
		}
	}

	outputFile := opt.GetPosString("OUTPUT")
	if outputFile == "" {
		fmt.Print(text)
		return
	}

	if err := os.WriteFile(outputFile, []byte(text), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Disassembly written to %s\n", outputFile)
}
