package main

import "github.com/oshokin/shipper/cmd/shipper/cmd"

func main() {
	cmd.Execute()
}
