package main

import (
	"vidshare/cmd"
)

func main() {
	cmd.Execute()
}
