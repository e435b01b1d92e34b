package main

import (
	"context"
	"log"

	"gridwalk/server/internal/app"
)

func main() {
	if err := app.Run(context.Background(), app.Config{}); err != nil {
		log.Fatalf("%v", err)
	}
}
