/*
Copyright (C) 2023  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
/*
	bxc compiles a single BX source file to x86-64 System V assembly.

	bxc <source.bx> [-fenable-opt] [-o <dir>]
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dc0d/onexit"

	"github.com/launix-de/bxc/lang/compiler"
)

// written tracks every output file path this run has created, so the
// onexit cleanup below can remove partial output if the process exits
// abnormally after opening some but not all of them. Mirrors the
// teacher's own onexit.Register use in storage/settings.go, redirected
// at "release partially-written output on abort" instead of closing a
// trace file.
var written []string
var succeeded bool

func main() {
	onexit.Register(func() {
		if succeeded {
			return
		}
		for _, p := range written {
			os.Remove(p)
		}
	})

	fmt.Print(`bxc Copyright (C) 2023   Carl-Philip Hänsch
    This program comes with ABSOLUTELY NO WARRANTY;
    This is free software, and you are welcome to redistribute it
    under certain conditions;
`)

	enableOpt := flag.Bool("fenable-opt", false, "run the peephole optimizer before assembling")
	outDir := flag.String("o", "", "directory to write .s/.tac.json into (default: alongside the source)")
	flag.Parse()

	// flag stops at the first non-flag argument, so flags written after
	// the source path are parsed in a second round.
	args := flag.Args()
	if len(args) > 1 {
		flag.CommandLine.Parse(args[1:])
		args = append([]string{args[0]}, flag.Args()...)
	}
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: bxc <source.bx> [-fenable-opt] [-o <dir>]")
		onexit.Exit(1)
	}

	srcPath := args[0]
	src, err := os.ReadFile(srcPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bxc: %v\n", err)
		onexit.Exit(1)
	}

	fmt.Printf("bxc: compiling %s\n", srcPath)

	result, cerr := compiler.Compile(srcPath, string(src), compiler.Options{EnableOpt: *enableOpt})
	if cerr != nil {
		fmt.Fprintln(os.Stderr, cerr.Error())
		onexit.Exit(1)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "bxc: warning: %s\n", w)
	}

	dir := *outDir
	if dir == "" {
		dir = filepath.Dir(srcPath)
	}
	base := strippedExt(filepath.Base(srcPath))

	asmPath := filepath.Join(dir, base+".s")
	if err := os.WriteFile(asmPath, []byte(result.Assembly), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "bxc: %v\n", err)
		onexit.Exit(1)
	}
	written = append(written, asmPath)
	fmt.Printf("bxc: wrote %s (build %s)\n", asmPath, result.BuildID)

	tacPath := filepath.Join(dir, base+".tac.json")
	if err := os.WriteFile(tacPath, result.TACJSON, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "bxc: %v\n", err)
		onexit.Exit(1)
	}
	written = append(written, tacPath)
	fmt.Printf("bxc: wrote %s\n", tacPath)

	succeeded = true
}

func strippedExt(name string) string {
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)]
}
