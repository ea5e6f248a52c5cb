package main

import "github.com/caretap/caretap_backend/cmd"

func main() {
	cmd.Execute()
}
