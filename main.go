package main

import "github.com/arroyo-downloader/arroyo/cmd"

func main() {
	cmd.Execute()
}
