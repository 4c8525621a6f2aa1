// Command dinner is the command-line interface to the household food
// planner.
package main

import "github.com/jkmoore/whats-for-dinner/internal/cli"

func main() {
	cli.Execute()
}
