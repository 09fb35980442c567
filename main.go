package main

import "github.com/loog-project/rulist/cmd"

func main() {
	cmd.Execute()
}
