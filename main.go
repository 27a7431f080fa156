package main

import "github.com/vibast-solutions/ms-go-mailings/cmd"

func main() {
	cmd.Execute()
}
