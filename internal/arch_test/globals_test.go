package arch_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"testing"
)

// allowedGlobalPrefixes lists name prefixes for which all vars in the given
// package are treated as constant-like.
var allowedGlobalPrefixes = map[string][]string{
	// ui: lipgloss colors and styles are immutable after init.
	"ui": {"style", "color"},
}

// TestNoMutableGlobalState scans all internal packages for package-level var
// declarations and flags any that are not error sentinels, interface checks,
// sync primitives, literals, or allowlisted by prefix.
func TestNoMutableGlobalState(t *testing.T) {
	t.Parallel()

	dir := internalDirPath(t)
	for _, pkg := range internalPackages(t) {
		t.Run(pkg, func(t *testing.T) {
			t.Parallel()

			prefixes := allowedGlobalPrefixes[pkg]
			fset := token.NewFileSet()
			for _, filePath := range goFilesIn(t, filepath.Join(dir, pkg)) {
				node, err := parser.ParseFile(fset, filePath, nil, 0)
				if err != nil {
					t.Fatalf("parsing %s: %v", filePath, err)
				}
				for _, name := range disallowedGlobals(node, prefixes) {
					t.Errorf("mutable global state in %s: var %s; use dependency injection or move to a function",
						filepath.Base(filePath), name)
				}
			}
		})
	}
}

// disallowedGlobals returns the names of package-level vars in node that
// match none of the allowed patterns.
func disallowedGlobals(node *ast.File, prefixes []string) []string {
	var names []string
	for _, decl := range node.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.VAR {
			continue
		}
		for _, spec := range gd.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for i, name := range vs.Names {
				var val ast.Expr
				if i < len(vs.Values) {
					val = vs.Values[i]
				}
				if name.Name == "_" || hasAllowedPrefix(name.Name, prefixes) || allowedValue(vs.Type, val) {
					continue
				}
				names = append(names, name.Name)
			}
		}
	}
	return names
}

func hasAllowedPrefix(varName string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(varName, p) {
			return true
		}
	}
	return false
}

func allowedValue(typeExpr, val ast.Expr) bool {
	return isErrorSentinel(typeExpr, val) || isSyncOrAtomicType(typeExpr) || isLiteral(val)
}

// isErrorSentinel reports whether the declaration is typed error or
// initialized by errors.New or fmt.Errorf.
func isErrorSentinel(typeExpr, val ast.Expr) bool {
	if ident, ok := typeExpr.(*ast.Ident); ok && ident.Name == "error" {
		return true
	}
	pkg, fn, ok := calledFunc(val)
	if !ok {
		return false
	}
	return (pkg == "errors" && fn == "New") || (pkg == "fmt" && fn == "Errorf")
}

func isSyncOrAtomicType(typeExpr ast.Expr) bool {
	sel, ok := typeExpr.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	pkgIdent, ok := sel.X.(*ast.Ident)
	return ok && (pkgIdent.Name == "sync" || pkgIdent.Name == "atomic")
}

// isLiteral reports basic literals and inline composite literals, which act
// as constant lookup tables.
func isLiteral(val ast.Expr) bool {
	switch val.(type) {
	case *ast.BasicLit, *ast.CompositeLit:
		return true
	}
	return false
}

// calledFunc returns pkg and function name for a call of the form pkg.Fn(...).
func calledFunc(val ast.Expr) (string, string, bool) {
	call, ok := val.(*ast.CallExpr)
	if !ok {
		return "", "", false
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return "", "", false
	}
	pkgIdent, ok := sel.X.(*ast.Ident)
	if !ok {
		return "", "", false
	}
	return pkgIdent.Name, sel.Sel.Name, true
}

func TestGlobalStatePatterns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		flagged bool
	}{
		{"error_sentinel_errors_new", `package p; import "errors"; var ErrFoo = errors.New("foo")`, false},
		{"error_sentinel_fmt_errorf", `package p; import "fmt"; var ErrBar = fmt.Errorf("bar: %w", nil)`, false},
		{"interface_check", `package p; type I interface{}; type S struct{}; var _ I = (*S)(nil)`, false},
		{"sync_once", `package p; import "sync"; var once sync.Once`, false},
		{"simple_int_literal", `package p; var count = 42`, false},
		{"composite_map_literal", `package p; var lookup = map[string]bool{"x": true}`, false},
		{"make_map", `package p; var m = make(map[string]string)`, true},
		{"make_chan", `package p; var ch = make(chan int)`, true},
		{"constructor_call", `package p; import "os"; var f, _ = os.Open("x")`, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			node, err := parser.ParseFile(token.NewFileSet(), "test.go", tc.src, 0)
			if err != nil {
				t.Fatalf("parsing: %v", err)
			}
			got := len(disallowedGlobals(node, nil)) > 0
			if got != tc.flagged {
				t.Errorf("flagged = %v, want %v", got, tc.flagged)
			}
		})
	}
}
