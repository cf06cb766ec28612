package main

import cmd "github.com/rohmanhakim/newsletter-triage/internal/cli"

func main() {
	cmd.Execute()
}
