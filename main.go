// The main package for the boatrace-crawler executable.
package main

import (
	"github.com/metaboatrace/crawler/cmd"
)

func main() {
	cmd.Execute()
}
