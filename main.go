package main

import "github.com/iksnae/work-scope/cmd"

func main() {
	cmd.Execute()
}
