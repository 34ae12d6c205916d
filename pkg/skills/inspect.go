package skills

import (
	"crypto/sha256"
	"encoding/hex"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	skilltypes "github.com/jingkaihe/skillctl/pkg/types/skills"
	"github.com/pkg/errors"
)

const (
	sourceExt      = ".go"
	entryPoint     = "Execute"
	modelsSuffix   = "_models"
	registryPrefix = "registry"
)

// initializerFiles hold package documentation or initialisation only.
var initializerFiles = map[string]bool{
	"doc.go":  true,
	"init.go": true,
}

// IsSkillArtifact reports whether a file name is a candidate skill source.
// Package initializer files, auxiliary model files (suffix _models), the
// registry machinery (prefix registry) and tests are excluded.
func IsSkillArtifact(fileName string) bool {
	if filepath.Ext(fileName) != sourceExt {
		return false
	}
	if initializerFiles[fileName] || strings.HasSuffix(fileName, "_test.go") {
		return false
	}

	base := strings.TrimSuffix(fileName, sourceExt)
	if strings.HasSuffix(base, modelsSuffix) || strings.HasPrefix(base, registryPrefix) {
		return false
	}
	return base != ""
}

// SkillName derives the skill name from an artifact path.
func SkillName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), sourceExt)
}

// Inspect statically inspects a source artifact without executing it.
// A parse failure is returned as an error; an artifact that parses but has
// no conforming entry point is returned with status discovered.
func Inspect(path string) (*Unit, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill source")
	}

	unit := &Unit{
		Name:        SkillName(path),
		Version:     UnknownVersion,
		Interface:   NoInterface,
		Status:      skilltypes.StatusDiscovered,
		File:        path,
		Fingerprint: Fingerprint(content),
		ScannedAt:   time.Now().UTC(),
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, content, parser.ParseComments)
	if err != nil {
		return unit, errors.Wrap(err, "failed to parse skill source")
	}

	unit.Package = file.Name.Name
	if file.Doc != nil {
		unit.Description = firstLine(file.Doc.Text())
	}

	versionFound := false
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if versionFound || (d.Tok != token.CONST && d.Tok != token.VAR) {
				continue
			}
			if v, ok := declaredVersion(d); ok {
				unit.Version = v
				versionFound = true
			}
		case *ast.FuncDecl:
			if d.Recv != nil || d.Name.Name != entryPoint {
				continue
			}
			takesCtx, returnsErr, ok := conformingSignature(d.Type)
			if !ok {
				continue
			}
			unit.Status = skilltypes.StatusReady
			unit.TakesContext = takesCtx
			unit.ReturnsError = returnsErr
			unit.Interface = entryPoint + strings.TrimPrefix(types.ExprString(d.Type), "func")
			if unit.Description == "" && d.Doc != nil {
				unit.Description = firstLine(d.Doc.Text())
			}
		}
	}

	return unit, nil
}

// Fingerprint returns a short content hash.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:12]
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// declaredVersion finds the first string literal bound to a name spelled
// "version" in any case.
func declaredVersion(d *ast.GenDecl) (string, bool) {
	for _, spec := range d.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		for i, name := range vs.Names {
			if !strings.EqualFold(name.Name, "version") || i >= len(vs.Values) {
				continue
			}
			lit, ok := vs.Values[i].(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				continue
			}
			v, err := strconv.Unquote(lit.Value)
			if err != nil || v == "" {
				continue
			}
			return v, true
		}
	}
	return "", false
}

// conformingSignature accepts
//
//	func(map[string]any) map[string]any
//	func(map[string]any) (map[string]any, error)
//
// optionally with a leading context.Context parameter.
func conformingSignature(ft *ast.FuncType) (takesCtx, returnsErr, ok bool) {
	params := expandFields(ft.Params)
	switch {
	case len(params) == 1 && isPayloadMap(params[0]):
	case len(params) == 2 && isContext(params[0]) && isPayloadMap(params[1]):
		takesCtx = true
	default:
		return false, false, false
	}

	results := expandFields(ft.Results)
	switch {
	case len(results) == 1 && isPayloadMap(results[0]):
	case len(results) == 2 && isPayloadMap(results[0]) && isIdent(results[1], "error"):
		returnsErr = true
	default:
		return false, false, false
	}

	return takesCtx, returnsErr, true
}

func expandFields(fl *ast.FieldList) []ast.Expr {
	if fl == nil {
		return nil
	}
	var out []ast.Expr
	for _, f := range fl.List {
		n := len(f.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			out = append(out, f.Type)
		}
	}
	return out
}

func isPayloadMap(expr ast.Expr) bool {
	mt, ok := expr.(*ast.MapType)
	if !ok || !isIdent(mt.Key, "string") {
		return false
	}
	if isIdent(mt.Value, "any") {
		return true
	}
	it, ok := mt.Value.(*ast.InterfaceType)
	return ok && (it.Methods == nil || len(it.Methods.List) == 0)
}

func isContext(expr ast.Expr) bool {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	return isIdent(sel.X, "context") && sel.Sel.Name == "Context"
}

func isIdent(expr ast.Expr, name string) bool {
	id, ok := expr.(*ast.Ident)
	return ok && id.Name == name
}
