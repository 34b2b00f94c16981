package main

import "github.com/dnslogd/dnslogd/cmd"

func main() {
	cmd.Execute()
}
