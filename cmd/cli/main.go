// Command llp runs layered label propagation over a graph to derive a
// vertex permutation that improves the locality of its adjacency
// representation.
package main

import (
	"github.com/llp-go/llp/cmd/cli/cmd"
)

func main() {
	cmd.Execute()
}
