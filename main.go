package main

import "github.com/KaramelBytes/edascope/cmd"

func main() {
	cmd.Execute()
}
