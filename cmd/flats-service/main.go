package main

import (
	"log"
	_ "time/tzdata"

	"github.com/DaniilsFirgers/dzivoklitis/internal"
)

func main() {
	app, err := internal.NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("Application stopped with error: %v", err)
	}
}
