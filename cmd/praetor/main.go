// praetor — constitutional governance for multi-agent systems.
package main

import "github.com/praetor-hq/praetor/internal/cli"

func main() {
	cli.Execute()
}
