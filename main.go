package main

import (
	"os"

	"github.com/Stebibastian/kas-filesync/cmd"
)

func main() {
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "watch")
	}
	cmd.Execute()
}
