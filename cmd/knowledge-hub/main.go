// Package main is the entry point for the Knowledge Hub service.
package main

import (
	_ "go.uber.org/automaxprocs"

	hub "github.com/kart-io/knowledge-hub/internal/hub"
)

func main() {
	hub.NewApp().Run()
}
