package main

import (
	"github.com/powderlines/lifttiles/internal/cmd"
)

func main() {
	cmd.Execute()
}
