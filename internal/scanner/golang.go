package scanner

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"

	"github.com/leapstack-labs/rulecraft/pkg/core"
)

// GoExtractor reads imports and top-level declarations from Go files.
type GoExtractor struct{}

// Extensions implements Extractor.
func (GoExtractor) Extensions() []string { return []string{".go"} }

// Extract implements Extractor. Syntax errors are tolerated as long as the
// parser recovered a partial file.
func (GoExtractor) Extract(path string, src []byte) (core.ExtractedSymbols, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.SkipObjectResolution)
	if file == nil || file.Name == nil || file.Name.Name == "" {
		return core.ExtractedSymbols{}, err
	}

	var out core.ExtractedSymbols
	for _, imp := range file.Imports {
		if p, err := strconv.Unquote(imp.Path.Value); err == nil {
			out.Imports = append(out.Imports, p)
		}
	}

	add := func(name string, kind core.SymbolKind) {
		if name != "" && name != "_" {
			out.DeclaredNames = append(out.DeclaredNames, core.DeclaredName{Name: name, Kind: kind})
		}
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv != nil {
				add(d.Name.Name, core.KindMethod)
			} else {
				add(d.Name.Name, core.KindFunction)
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					switch s.Type.(type) {
					case *ast.InterfaceType:
						add(s.Name.Name, core.KindInterface)
					case *ast.StructType:
						add(s.Name.Name, core.KindStruct)
					default:
						add(s.Name.Name, core.KindType)
					}
				case *ast.ValueSpec:
					kind := core.KindVariable
					if d.Tok == token.CONST {
						kind = core.KindConstant
					}
					for _, n := range s.Names {
						add(n.Name, kind)
					}
				}
			}
		}
	}
	return out, nil
}
