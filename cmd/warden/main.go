package main

import (
	"log"

	"github.com/MrSnakeDoc/warden/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ warden failed to start: %v", err)
	}
}
