package main

import "github.com/finchlabs/labflow/cmd"

func main() {
	cmd.Execute()
}
