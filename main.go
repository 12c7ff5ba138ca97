package main

import "studylog/internal/cli"

func main() {
	cli.Execute()
}
