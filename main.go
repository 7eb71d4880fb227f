package main

import "github.com/meysamhadeli/focussync/cmd"

func main() {
	cmd.Execute()
}
