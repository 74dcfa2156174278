package main

import "YieldSentinel/cmd/sentinel/cmd"

func main() {
	cmd.Execute()
}
