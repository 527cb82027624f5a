package main

import "declaration-manager/cmd"

func main() {
	cmd.Execute()
}
