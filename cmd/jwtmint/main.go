package main

import "github.com/axent-pl/jwtmint/cmd/jwtmint/cmd"

func main() {
	cmd.Execute()
}
