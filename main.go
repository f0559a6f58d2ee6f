package main

import (
	"github.com/ValentinKolb/semguard/cmd"
)

func main() {
	cmd.Execute()
}
