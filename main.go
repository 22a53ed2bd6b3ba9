package main

import "github.com/encodeous/rbridge/cmd"

func main() {
	cmd.Execute()
}
