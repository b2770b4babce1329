package main

import "github.com/vvatanabe/scm/internal/cmd"

func main() {
	cmd.Execute()
}
