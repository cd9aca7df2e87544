package pkg

import (
	"log"
	"os"

	"go.uber.org/zap"
)

// panic - детектит.
func FuncWithPanic() {
	panic("ошибка") // want "use of builtin panic is discouraged"
}

// log.Fatal - детектит.
func FuncWithFatal() {
	log.Fatal("вне main.main")    // want "call to log.Fatal or os.Exit outside main.main"
	log.Fatalf("%s", "main.main") // want "call to log.Fatal or os.Exit outside main.main"
}

// os.Exit - детектит.
func FuncWithExit() {
	os.Exit(1) // want "call to log.Fatal or os.Exit outside main.main"
}

// zap Fatal - детектит.
func FuncWithZapFatal(logger *zap.Logger) {
	logger.Fatal("device unreachable") // want "call to zap Fatal outside main.main"
	logger.Sugar().Fatalf("%d", 1)     // want "call to zap Fatal outside main.main"
}

// Переопределённый panic не трогаем.
func FuncWithShadowedPanic() {
	panic := func(string) {}
	panic("ОК")
}

// Метод с именем Exit у своего типа не трогаем.
type exiter struct{}

func (exiter) Exit(int) {}

func FuncWithOwnExit() {
	var os exiter
	os.Exit(1)
}

// log.Print и zap Error - всё ГУДчи.
func FuncAllowed(logger *zap.Logger) {
	log.Println("ОК")
	logger.Error("ОК")
}
