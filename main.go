package main

import "github.com/gaurav-prasanna/smartdoc/cmd"

func main() {
	cmd.Execute()
}
