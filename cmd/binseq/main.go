// Command binseq encodes, decodes, and queries BQ/VBQ/CBQ binary
// sequencing-read containers.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/arcinstitute/binseq/cmd/binseq/cmd"
	"github.com/arcinstitute/binseq/log"
)

func main() {
	help := flag.Bool("help", false, "Display help about this command")
	flag.Parse()
	if *help {
		cmd.PrintHelp()
		os.Exit(0)
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	if err := cmd.Run(context.Background(), flag.Args()); err != nil {
		log.Fatal(err)
	}
}
