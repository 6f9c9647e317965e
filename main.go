package main

import "filmclub/server/internal/commands"

func main() {
	commands.Execute()
}
