package main

import "scanmate/cmd"

func main() {
	cmd.Execute()
}
