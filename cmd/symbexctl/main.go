// Command symbexctl drives a façade.Session over a recorded instruction
// trace from the command line: process every record and report taint,
// symbolic state and path constraints, non-interactively.
package main

func main() {
	execute()
}
