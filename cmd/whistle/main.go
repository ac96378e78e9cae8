package main

import "github.com/blockend-dev/AleoWhistle/cmd/whistle/cli"

func main() {
	cli.Execute()
}
