package main

import "github.com/Tiliavir/climesync/cmd"

func main() {
	cmd.Execute()
}
