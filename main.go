// The main package for the enricher executable.
package main

import (
	"github.com/flicklab/tmdb-enricher/cmd"
)

// main defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
