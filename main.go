package main

import (
	"log"

	"github.com/thiagokokada/gitstruct/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("gitstruct: %v", err)
	}
}
