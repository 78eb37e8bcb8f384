package main

import (
	"storyview/internal/ui"
)

func main() {
	ui.CreateApplication()
}
