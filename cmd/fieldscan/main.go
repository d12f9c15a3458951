package main

import (
	"github.com/MeKo-Tech/fieldscan/cmd/fieldscan/cmd"
)

func main() {
	cmd.Execute()
}
