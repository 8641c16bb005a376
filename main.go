package main

import "github.com/CyrilBrulebois/apt-webindex/cmd"

var version = "develop"

func main() {
	cmd.Execute(version)
}
