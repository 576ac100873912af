package main

import "github.com/nfrund/kpiboard/cmd/kpiboard/cmd"

func main() {
	cmd.Execute()
}
