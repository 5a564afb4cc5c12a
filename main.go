package main

import "github.com/BenWassa/hearth/internal/cmd"

func main() {
	cmd.Execute()
}
