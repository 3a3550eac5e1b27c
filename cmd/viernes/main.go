package main

import "github.com/consorcioci/viernes/cmd/viernes/cmd"

func main() {
	cmd.Execute()
}
