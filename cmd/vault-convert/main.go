package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"OTPKeeper/internal/convert"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s <in> <out>\n\nConverts a v0 vault (bare JSON array) to the v1 wrapped format.\n", os.Args[0])
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	n, err := convert.File(flag.Arg(0), flag.Arg(1))
	if err != nil {
		if errors.Is(err, convert.ErrAlreadyV1) {
			fmt.Fprintf(os.Stderr, "%s is already a v1 vault\n", flag.Arg(0))
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "vault-convert: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Converted %d entries: %s\n", n, flag.Arg(1))
}
