package linter

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

const zapPkgPath = "go.uber.org/zap"

var Analyzer = &analysis.Analyzer{
	Name: "exitcheck",
	Doc:  "reports builtin panic, log.Fatal, os.Exit and zap Fatal calls outside main.main",
	Run:  run,
}

// Методы логгеров zap, завершающие процесс.
var zapFatalMethods = map[string]bool{
	"Fatal":   true,
	"Fatalf":  true,
	"Fatalw":  true,
	"Fatalln": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		// Тестам разрешено паниковать.
		if strings.HasSuffix(pass.Fset.File(file.Pos()).Name(), "_test.go") {
			continue
		}
		pkgName := file.Name.Name
		for _, decl := range file.Decls {
			funcName := ""
			if fDecl, ok := decl.(*ast.FuncDecl); ok {
				if fDecl.Body == nil {
					continue
				}
				// Методы не могут быть main.main, даже если называются main.
				if fDecl.Recv == nil {
					funcName = fDecl.Name.Name
				}
			}
			inMain := pkgName == "main" && funcName == "main"

			ast.Inspect(decl, func(node ast.Node) bool {
				// Замыкания внутри main.main выполняются вне его кадра.
				if lit, ok := node.(*ast.FuncLit); ok && inMain {
					checkBody(pass, lit.Body, false)
					return false
				}
				checkCall(pass, node, inMain)
				return true
			})
		}
	}
	return nil, nil
}

func checkBody(pass *analysis.Pass, body *ast.BlockStmt, inMain bool) {
	ast.Inspect(body, func(node ast.Node) bool {
		checkCall(pass, node, inMain)
		return true
	})
}

func checkCall(pass *analysis.Pass, node ast.Node, inMain bool) {
	call, ok := node.(*ast.CallExpr)
	if !ok {
		return
	}

	// Встроенный panic запрещён везде, включая main.main.
	if id, ok := call.Fun.(*ast.Ident); ok {
		if id.Name == "panic" {
			if _, builtin := pass.TypesInfo.Uses[id].(*types.Builtin); builtin {
				pass.Reportf(id.Pos(), "use of builtin panic is discouraged")
			}
		}
		return
	}

	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || inMain {
		return
	}

	if selection, ok := pass.TypesInfo.Selections[sel]; ok {
		if isZapFatal(selection) {
			pass.Reportf(sel.Sel.Pos(), "call to zap Fatal outside main.main")
		}
		return
	}

	ident, ok := sel.X.(*ast.Ident)
	if !ok {
		return
	}
	pkgNameObj, ok := pass.TypesInfo.Uses[ident].(*types.PkgName)
	if !ok {
		return
	}

	switch pkgNameObj.Imported().Path() {
	case "log":
		if strings.HasPrefix(sel.Sel.Name, "Fatal") {
			pass.Reportf(sel.Sel.Pos(), "call to log.Fatal or os.Exit outside main.main")
		}
	case "os":
		if sel.Sel.Name == "Exit" {
			pass.Reportf(sel.Sel.Pos(), "call to log.Fatal or os.Exit outside main.main")
		}
	}
}

// isZapFatal сообщает, является ли выбор вызовом Fatal* у *zap.Logger или *zap.SugaredLogger.
func isZapFatal(selection *types.Selection) bool {
	if selection.Kind() != types.MethodVal || !zapFatalMethods[selection.Obj().Name()] {
		return false
	}
	recv := selection.Recv()
	if ptr, ok := recv.(*types.Pointer); ok {
		recv = ptr.Elem()
	}
	named, ok := recv.(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return false
	}
	return named.Obj().Pkg().Path() == zapPkgPath
}
