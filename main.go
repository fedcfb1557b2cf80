package main

import "github.com/naka-gawa/github-pr-dashboard/cmd"

func main() {
	cmd.Execute()
}
