package main

import "air-library/commands"

func main() {
	commands.Execute()
}
