package main

import "mediainfo-keeper/cmd"

func main() {
	cmd.Execute()
}
