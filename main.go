package main

import (
	"os"

	"github.com/PolarWolf314/kahu/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
