package linter_test

import (
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"

	"github.com/RoGogDBD/huawei-ont-exporter/cmd/linter"
)

func TestAnalyzer(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, linter.Analyzer, "pkg1", "mainpkg")
}
