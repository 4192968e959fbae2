package main

import "archmap/cmd"

func main() {
	cmd.Execute()
}
