// Command sercha-context answers questions from uploaded documents and
// external sources, refusing answers the evidence does not support.
package main

import "github.com/custodia-labs/sercha-context/internal/adapters/driving/cli"

func main() {
	cli.Execute()
}
