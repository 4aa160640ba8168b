package main

import (
	"context"
	"os"
)

// @title SustAInex Incident Response API
// @version 1.0
// @description Smart-city incident response: media analysis, localized guidance, voice dispatch and community feed.
// @host localhost:8080
// @BasePath /api/v1
func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
