package main

import (
	"os"

	s3fs "github.com/cloudfs/s3fs"
)

func main() {
	exitCode := s3fs.Main(nil, os.Args, os.Stdout)
	os.Exit(exitCode)
}
