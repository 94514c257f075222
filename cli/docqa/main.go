package main

import (
	"os"

	"github.com/joho/godotenv"

	docqacmder "github.com/papercomputeco/docqa/cmd/docqa"
)

func main() {
	// A missing .env is fine; DOCQA_* variables may come from the shell.
	_ = godotenv.Load()

	cmd := docqacmder.NewDocqaCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
