package main

import "github.com/envault/envault/cmd"

func main() {
	cmd.Execute()
}
