package main

import "github.com/c0depwn/ripplec/cmd"

func main() {
	cmd.Exec()
}
