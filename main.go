package main

import "github.com/ayushmankoley/GrowMint/cmd"

func main() {
	cmd.Execute()
}
