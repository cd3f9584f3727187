package main

import (
	"os"

	"horse.fit/todos/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
