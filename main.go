package main

import "github.com/backscan/backscan/cmd"

func main() {
	cmd.Execute()
}
