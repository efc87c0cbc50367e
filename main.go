package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/perfgo/coverpipe/cli"
)

// Version information, set by goreleaser via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Optional .env in the working directory, e.g. COVERPIPE_NCOVER_PATH
	_ = godotenv.Load()

	c := cli.New()
	c.SetVersion(version, commit, date)
	err := c.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
