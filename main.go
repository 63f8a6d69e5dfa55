package main

import "github.com/renatogalera/ai-chat/cmd"

func main() {
	cmd.Execute()
}
