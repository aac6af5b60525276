// Package main provides the propnet CLI.
package main

import (
	"fmt"
	"os"

	"github.com/propnet-ml/propnet/checkpoint"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("propnet %s\n", version)
			return
		case "inspect":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "Usage: propnet inspect <file.pnet>")
				os.Exit(1)
			}
			if err := inspect(os.Args[2]); err != nil {
				fmt.Fprintf(os.Stderr, "propnet: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Println("propnet - feed-forward and convolutional network training in Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version             Show version")
	fmt.Println("  inspect <file>      Show the layers of a saved checkpoint")
}

// inspect prints the parameter shapes stored in a checkpoint file.
func inspect(path string) error {
	params, err := checkpoint.Load(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d layers\n", path, len(params))
	for i, p := range params {
		if p.Weight == nil {
			fmt.Printf("  layer %d: no parameters\n", i)
			continue
		}
		fmt.Printf("  layer %d: weight %v, bias %v\n", i, p.Weight.Shape(), p.Bias.Shape())
	}
	return nil
}
