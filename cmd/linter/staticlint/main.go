package main

import (
	"github.com/RoGogDBD/huawei-ont-exporter/cmd/linter"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(linter.Analyzer)
}
