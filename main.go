package main

import "github.com/softex1/tably-paket1/cmd"

func main() {
	cmd.Execute()
}
