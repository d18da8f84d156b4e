package main

import "github.com/AinsleeWang/smart-doc-scan/cmd/docscan/cmd"

func main() {
	cmd.Execute()
}
