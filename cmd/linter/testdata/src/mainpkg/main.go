package main

import (
	"log"
	"os"

	"go.uber.org/zap"
)

func main() {
	logger := zap.NewNop()
	if len(os.Args) > 3 {
		logger.Fatal("ОК в main.main")
	}
	if len(os.Args) > 2 {
		log.Fatal("ОК в main.main")
	}
	defer func() {
		os.Exit(2) // want "call to log.Fatal or os.Exit outside main.main"
	}()
	os.Exit(1)
}

func run() {
	os.Exit(1) // want "call to log.Fatal or os.Exit outside main.main"
}

type app struct{}

func (app) main() {
	log.Fatal("метод, а не main.main") // want "call to log.Fatal or os.Exit outside main.main"
}
