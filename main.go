package main

import "github.com/luaforge/tslc/cmd"

var version = "v0.3.1"

func main() {
	cmd.Execute(version)
}
