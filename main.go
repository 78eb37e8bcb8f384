// Main entry point for the application
package main

import (
	"log"

	"storyview/internal/ui"
)

func main() {
	log.SetPrefix("storyview ")

	ui.CreateApplication()
}
