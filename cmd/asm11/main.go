package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Urethramancer/pdp11/assembler"
	"github.com/Urethramancer/pdp11/output"
	"github.com/grimdork/climate/arg"
	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"
)

func main() {
	opt := arg.New("asm11")
	opt.SetDefaultHelp(true)
	opt.SetOption(arg.GroupDefault, "o", "output", "Directory for output files.", "", false, arg.VarString, nil)
	opt.SetOption(arg.GroupDefault, "l", "link", "Default link address (octal).", "1000", false, arg.VarString, nil)
	opt.SetOption(arg.GroupDefault, "p", "project", "Assemble all files as one project.", false, false, arg.VarBool, nil)
	opt.SetOption(arg.GroupDefault, "s", "symbols", "Print the symbol table.", false, false, arg.VarBool, nil)
	opt.SetOption(arg.GroupDefault, "r", "raw", "Always write a raw image.", false, false, arg.VarBool, nil)
	opt.SetPositional("FILE", "Source files to assemble.", nil, true, arg.VarStringSlice)

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

	log.SetFlags(0)
	link, err := strconv.ParseInt(opt.GetString("link"), 8, 32)
	if err != nil {
		log.Fatalf("Invalid link address %q: %v", opt.GetString("link"), err)
	}

	cfg := config{
		dir:     opt.GetString("output"),
		link:    int(link),
		symbols: opt.GetBool("symbols"),
		raw:     opt.GetBool("raw"),
	}
	files := opt.GetPosStringSlice("FILE")
	if len(files) == 0 {
		opt.PrintHelp()
		os.Exit(1)
	}

	ok := true
	if opt.GetBool("project") {
		ok = cfg.build(files, true)
	} else {
		for _, f := range files {
			if !cfg.build([]string{f}, false) {
				ok = false
			}
		}
	}
	if !ok {
		os.Exit(1)
	}
}

type config struct {
	dir     string
	link    int
	symbols bool
	raw     bool
}

// build assembles files in one session and writes the requested outputs.
// Errors are logged; the result reports success.
func (c config) build(files []string, project bool) bool {
	name := files[0]
	a := assembler.New()
	a.SetLink(c.link)
	a.SetProject(project)

	for _, f := range files {
		if err := a.AddFile(f); err != nil {
			report(f, err)
			return false
		}
	}

	img, err := a.Link()
	if err != nil {
		report(name, err)
		return false
	}

	if c.symbols {
		pp.Fprintf(os.Stderr, "%s: %v\n", name, img.Symbols)
	}

	dir := c.dir
	if dir == "" {
		dir = filepath.Dir(name)
	}
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))

	build := img.Build
	if len(build) == 0 || c.raw {
		build = append(build, output.Artifact{Kind: output.Raw})
	}
	for _, art := range build {
		path, err := output.Write(dir, base, art, img.Link, img.Data)
		if err != nil {
			report(name, err)
			return false
		}
		log.Printf("%s %s: %d bytes at %06o", prefix(name), path, len(img.Data), img.Link)
	}
	return true
}

// report logs err with the name of the file it concerns.
func report(name string, err error) {
	var ae *assembler.Error
	if errors.As(err, &ae) && ae.GetPosition().File != "" {
		name = ae.GetPosition().File
	}
	log.Printf("%s %v", prefix(name), err)
}

// prefix returns "name:" in bold when stderr is a terminal.
func prefix(name string) string {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return "\033[1m" + name + ":\033[0m"
	}
	return name + ":"
}
