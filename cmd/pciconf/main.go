package main

import (
	"log"
	"os"
)

// version must be set from the contents of VERSION file by go build's
// -X main.version= option in the Makefile.
var version = "unknown"

func main() {
	log.SetFlags(0)
	log.SetPrefix("pciconf: ")
	if err := execute(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
