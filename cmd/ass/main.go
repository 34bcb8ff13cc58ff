// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ass is a thin smoke-test wrapper around package ass, exercising
// the on-disk format end to end the way lldb/lab and dbm/crash exercise
// their own packages. It is not part of the tested library contract.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/megahomyak/assystem/ass"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage:
  ass get    <file> <key>
  ass set    <file> <key> <value>
  ass remove <file> <key>
  ass list   <file>
`)
	os.Exit(2)
}

func openOrCreate(path string) *ass.Store {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s, err := ass.Create(path)
		if err != nil {
			log.Fatal(err)
		}

		return s
	}

	s, err := ass.OpenFile(path)
	if err != nil {
		log.Fatal(err)
	}

	return s
}

func main() {
	log.SetFlags(log.Lshortfile)
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		usage()
	}

	cmd, path := args[0], args[1]
	s := openOrCreate(path)
	defer s.Close()

	switch cmd {
	case "get":
		if len(args) != 3 {
			usage()
		}

		v, ok, err := s.Get([]byte(args[2]))
		if err != nil {
			log.Fatal(err)
		}

		if !ok {
			fmt.Println("(absent)")
			return
		}

		fmt.Printf("%s\n", v)
	case "set":
		if len(args) != 4 {
			usage()
		}

		prev, existed, err := s.Set([]byte(args[2]), []byte(args[3]))
		if err != nil {
			log.Fatal(err)
		}

		if existed {
			fmt.Printf("replaced %q\n", prev)
		}
	case "remove":
		if len(args) != 3 {
			usage()
		}

		prev, existed, err := s.Remove([]byte(args[2]))
		if err != nil {
			log.Fatal(err)
		}

		if !existed {
			fmt.Println("(absent)")
			return
		}

		fmt.Printf("removed %q\n", prev)
	case "list":
		if len(args) != 2 {
			usage()
		}

		for k, v := range s.All() {
			fmt.Printf("%q\t%q\n", k, v)
		}
	default:
		usage()
	}
}
