// cmd/hydrategen/main.go
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"
)

// This binary is a code-generation tool.
//
// It reads a JSON spec naming the constructors, enum members and interface
// mappings of one package and generates a RegisterHydration function that
// declares them on a *hydrate.Registry, plus a HydrationCatalogue listing the
// package's hydratable types.
//
// Key behaviors:
// - Reads spec JSON: package, types (constructors, enum), abstracts
// - Locates the "owner" Go file (the one with the go:generate for cmd/hydrategen)
//   and reuses its alias for the hydrate import when it has one
// - Checks that every listed constructor is declared in the package when the
//   package sources can be parsed
// - Formats the result with go/format and writes it atomically (temp file + rename)

// DefaultHydrateImport is the import path of the hydrate package.
const DefaultHydrateImport = "github.com/sghaida/fixtures/hydrate"

// TypeSpec describes one hydratable type of the package.
type TypeSpec struct {
	// Name is the Go type name as written in the package, e.g. "Order".
	Name string `json:"name"`

	// Constructors are free functions returning Name or *Name, optionally with an error.
	Constructors []string `json:"constructors"`

	// Enum lists every member of an enumeration type, as Go identifiers.
	Enum []string `json:"enum"`
}

// AbstractSpec maps an interface type to its concrete candidates.
type AbstractSpec struct {
	Interface  string   `json:"interface"`
	Candidates []string `json:"candidates"`
}

// Imports lets a spec override where the hydrate package lives.
type Imports struct {
	Hydrate string `json:"hydrate"`
}

// Spec is the full input schema consumed by the generator.
type Spec struct {
	Package   string         `json:"package"`
	Imports   Imports        `json:"imports"`
	Types     []TypeSpec     `json:"types"`
	Abstracts []AbstractSpec `json:"abstracts"`
}

// ImportSpec models one Go import: optional alias and full import path.
type ImportSpec struct {
	Alias string
	Path  string
}

// templateData is the input passed to the Go template.
type templateData struct {
	Spec         Spec
	ImportsList  []ImportSpec
	HydrateIdent string
}

// run executes the generator logic and returns an exit code.
// It exists separately from main to allow unit testing without os.Exit.
func run(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("hydrategen", flag.ContinueOnError)
	flags.SetOutput(stderr)

	specPath := flags.String("spec", "", "path to models.hydrate.json")
	outPath := flags.String("out", "", "output .gen.go file path")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	if strings.TrimSpace(*specPath) == "" || strings.TrimSpace(*outPath) == "" {
		_, _ = fmt.Fprintln(stderr, "usage: hydrategen -spec <file.hydrate.json> -out <file.gen.go>")
		return 2
	}

	specBytes, err := os.ReadFile(*specPath)
	must(err)

	var spec Spec
	must(json.Unmarshal(specBytes, &spec))

	validateSpec(&spec)

	generatedFilePath := filepath.Clean(*outPath)
	packageDir := filepath.Dir(generatedFilePath)

	ownerGoFilePath, err := findOwnerGoGenerateFile(packageDir)
	if err != nil {
		// Generation still works without an owner file; the default import is used.
		ownerGoFilePath = ""
	}

	must(checkConstructorsDeclared(&spec, packageDir))

	importsList, hydrateIdent := resolveImports(ownerGoFilePath, &spec)

	data := templateData{
		Spec:         spec,
		ImportsList:  importsList,
		HydrateIdent: hydrateIdent,
	}

	var out bytes.Buffer
	must(genTemplate.Execute(&out, data))

	src, err := format.Source(out.Bytes())
	if err != nil {
		panic(fmt.Errorf("generated code does not parse: %w", err))
	}

	must(writeFileAtomic(generatedFilePath, src, 0o644))
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// validateSpec validates semantic correctness of the input specification.
func validateSpec(spec *Spec) {
	var missingFields []string

	if strings.TrimSpace(spec.Package) == "" {
		missingFields = append(missingFields, "package")
	}
	if len(spec.Types) == 0 && len(spec.Abstracts) == 0 {
		missingFields = append(missingFields, "types or abstracts (must have at least 1)")
	}
	if len(missingFields) > 0 {
		panic(fmt.Errorf("spec missing required fields: %v", missingFields))
	}

	seenTypes := make(map[string]struct{}, len(spec.Types))
	for _, typ := range spec.Types {
		if strings.TrimSpace(typ.Name) == "" {
			panic(fmt.Errorf("each type must have a name; got: %+v", typ))
		}
		if _, ok := seenTypes[typ.Name]; ok {
			panic(fmt.Errorf("duplicate type name: %s", typ.Name))
		}
		seenTypes[typ.Name] = struct{}{}

		requireUniqueIdents("constructor of "+typ.Name, typ.Constructors)
		requireUniqueIdents("enum member of "+typ.Name, typ.Enum)
	}

	seenInterfaces := make(map[string]struct{}, len(spec.Abstracts))
	for _, abs := range spec.Abstracts {
		if strings.TrimSpace(abs.Interface) == "" {
			panic(fmt.Errorf("each abstract must have an interface; got: %+v", abs))
		}
		if len(abs.Candidates) == 0 {
			panic(fmt.Errorf("abstract %s has no candidates", abs.Interface))
		}
		if _, ok := seenInterfaces[abs.Interface]; ok {
			panic(fmt.Errorf("duplicate abstract interface: %s", abs.Interface))
		}
		seenInterfaces[abs.Interface] = struct{}{}

		requireUniqueIdents("candidate of "+abs.Interface, abs.Candidates)
	}
}

func requireUniqueIdents(what string, idents []string) {
	seen := make(map[string]struct{}, len(idents))
	for _, ident := range idents {
		if strings.TrimSpace(ident) == "" {
			panic(fmt.Errorf("empty %s", what))
		}
		if _, ok := seen[ident]; ok {
			panic(fmt.Errorf("duplicate %s: %s", what, ident))
		}
		seen[ident] = struct{}{}
	}
}

// isSourceFile reports whether fileName is a hand-written Go source file.
func isSourceFile(fileName string) bool {
	return strings.HasSuffix(fileName, ".go") &&
		!strings.HasSuffix(fileName, "_test.go") &&
		!strings.HasSuffix(fileName, ".gen.go")
}

// findOwnerGoGenerateFile finds the Go source file in packageDir that contains a go:generate
// directive invoking cmd/hydrategen.
func findOwnerGoGenerateFile(packageDir string) (string, error) {
	dirEntries, err := os.ReadDir(packageDir)
	if err != nil {
		return "", err
	}

	for _, entry := range dirEntries {
		if entry.IsDir() || !isSourceFile(entry.Name()) {
			continue
		}

		filePath := filepath.Join(packageDir, entry.Name())
		fileBytes, err := os.ReadFile(filePath)
		if err != nil {
			// Best-effort: unreadable file shouldn’t break generation.
			continue
		}

		if bytes.Contains(fileBytes, []byte("go:generate")) && bytes.Contains(fileBytes, []byte("cmd/hydrategen")) {
			return filePath, nil
		}
	}

	return "", fmt.Errorf("could not find owner file with go:generate invoking cmd/hydrategen in %s", packageDir)
}

// readImportsFromFile parses imports from a Go file.
func readImportsFromFile(goFilePath string) ([]ImportSpec, error) {
	fileSet := token.NewFileSet()
	parsedFile, err := parser.ParseFile(fileSet, goFilePath, nil, parser.ImportsOnly)
	if err != nil {
		return nil, err
	}

	var imports []ImportSpec
	for _, importDecl := range parsedFile.Imports {
		importPath := strings.Trim(importDecl.Path.Value, `"`)
		importAlias := ""
		if importDecl.Name != nil {
			importAlias = importDecl.Name.Name
		}
		imports = append(imports, ImportSpec{Alias: importAlias, Path: importPath})
	}

	return imports, nil
}

func importDefaultIdent(importPath string) string {
	// Import paths always use forward slashes, even on Windows.
	return path.Base(strings.TrimSpace(importPath))
}

// resolveImports builds the imports of the generated file and returns the
// identifier under which the hydrate package is referenced.
//
// Rules:
//   - The hydrate import path is spec.imports.hydrate, else DefaultHydrateImport
//   - If the owner file imports that path under an alias (other than _ or .),
//     the generated file uses the same alias
//   - reflect is imported only when abstract mappings need reflect.TypeFor
func resolveImports(ownerFilePath string, spec *Spec) ([]ImportSpec, string) {
	hydratePath := strings.TrimSpace(spec.Imports.Hydrate)
	if hydratePath == "" {
		hydratePath = DefaultHydrateImport
	}
	hydrateImport := ImportSpec{Path: hydratePath}

	if strings.TrimSpace(ownerFilePath) != "" {
		ownerImports, err := readImportsFromFile(ownerFilePath)
		if err == nil {
			for _, imp := range ownerImports {
				if imp.Path == hydratePath && imp.Alias != "" && imp.Alias != "_" && imp.Alias != "." {
					hydrateImport.Alias = imp.Alias
				}
			}
		}
		// If parsing fails we keep the default import.
	}

	var imports []ImportSpec
	if len(spec.Abstracts) > 0 {
		imports = append(imports, ImportSpec{Path: "reflect"})
	}
	imports = append(imports, hydrateImport)

	ident := hydrateImport.Alias
	if ident == "" {
		ident = importDefaultIdent(hydratePath)
	}
	return imports, ident
}

// declaredFuncs returns the names of the free functions declared in sourceDir.
// ok is false when the directory holds no parseable sources.
func declaredFuncs(sourceDir string) (funcs map[string]struct{}, ok bool) {
	dirEntries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, false
	}

	fileSet := token.NewFileSet()
	funcs = map[string]struct{}{}

	for _, entry := range dirEntries {
		if entry.IsDir() || !isSourceFile(entry.Name()) {
			continue
		}

		// Parse with AllErrors so partial ASTs still contribute.
		parsedFile, _ := parser.ParseFile(fileSet, filepath.Join(sourceDir, entry.Name()), nil, parser.AllErrors)
		if parsedFile == nil {
			continue
		}
		ok = true

		for _, declaration := range parsedFile.Decls {
			funcDecl, isFunc := declaration.(*ast.FuncDecl)
			if !isFunc || funcDecl.Recv != nil || funcDecl.Name == nil {
				continue
			}
			funcs[funcDecl.Name.Name] = struct{}{}
		}
	}
	return funcs, ok
}

// checkConstructorsDeclared fails when a listed constructor is missing from
// the package sources. Qualified names (pkg.NewX) are not checked. Without
// parseable sources nothing is checked.
func checkConstructorsDeclared(spec *Spec, sourceDir string) error {
	funcs, ok := declaredFuncs(sourceDir)
	if !ok {
		return nil
	}
	for _, typ := range spec.Types {
		for _, ctor := range typ.Constructors {
			if strings.Contains(ctor, ".") {
				continue
			}
			if _, found := funcs[ctor]; !found {
				return fmt.Errorf("constructor %q of type %s is not declared in %s", ctor, typ.Name, sourceDir)
			}
		}
	}
	return nil
}

// genTemplate is the Go source template for the registration file.
var genTemplate = template.Must(
	template.New("hydrategen").Parse(`// Code generated by hydrategen; DO NOT EDIT.

package {{.Spec.Package}}

import (
{{- range $i, $imp := .ImportsList}}
{{- if $i}}
{{end}}
	{{if $imp.Alias}}{{$imp.Alias}} {{end}}"{{$imp.Path}}"
{{- end}}
)

// RegisterHydration declares the constructors, enum members and interface
// mappings of package {{.Spec.Package}} on r.
func RegisterHydration(r *{{.HydrateIdent}}.Registry) error {
	{{- range .Spec.Types}}
	{{- $type := .Name}}
	{{- range .Constructors}}
	if err := r.RegisterConstructor({{.}}); err != nil {
		return err
	}
	{{- end}}
	{{- if .Enum}}
	if err := {{$.HydrateIdent}}.MapEnum[{{$type}}](r{{range .Enum}}, {{.}}{{end}}); err != nil {
		return err
	}
	{{- end}}
	{{- end}}
	{{- range .Spec.Abstracts}}
	if err := {{$.HydrateIdent}}.MapAbstract[{{.Interface}}](r{{range .Candidates}},
		reflect.TypeFor[{{.}}](){{end}},
	); err != nil {
		return err
	}
	{{- end}}
	return nil
}

// HydrationCatalogue lists the hydratable types of package {{.Spec.Package}}.
func HydrationCatalogue() {{.HydrateIdent}}.Catalogue {
	return {{.HydrateIdent}}.NewCatalogue(
		{{- range .Spec.Types}}
		{{$.HydrateIdent}}.EntryFor[{{.Name}}]("{{.Name}}"),
		{{- end}}
	)
}
`),
)

// tempFile abstracts an os.File for testability.
type tempFile interface {
	Name() string
	Write([]byte) (int, error)
	Close() error
}

// File operation hooks, overridden in tests.
var (
	createTempFile = func(dir, pattern string) (tempFile, error) { return os.CreateTemp(dir, pattern) }
	chmodFile      = os.Chmod
	renameFile     = os.Rename
	removeFile     = os.Remove
)

// writeFileAtomic writes to a temporary file in the same directory and then
// renames it over targetPath, so readers never observe partial writes.
func writeFileAtomic(targetPath string, data []byte, perm os.FileMode) (err error) {
	targetDir := filepath.Dir(targetPath)

	tmpFile, err := createTempFile(targetDir, filepath.Base(targetPath)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if err != nil {
			_ = removeFile(tmpPath)
		}
	}()

	if _, err = tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err = tmpFile.Close(); err != nil {
		return err
	}
	if err = chmodFile(tmpPath, perm); err != nil {
		return err
	}
	return renameFile(tmpPath, targetPath)
}

// must panics if err is non-nil.
func must(err error) {
	if err != nil {
		panic(err)
	}
}
