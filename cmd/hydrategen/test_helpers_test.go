package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

//
// -----------------------------------------------------------------------------
// Shared fixtures
// -----------------------------------------------------------------------------

// minimalSpecJSON returns a spec that passes validateSpec and lets run()
// generate output without any package sources present.
func minimalSpecJSON() []byte {
	return []byte(`{
  "package": "models",
  "types": [
    { "name": "Order", "constructors": ["NewOrder"] },
    { "name": "Status", "enum": ["StatusOpen", "StatusClosed"] }
  ],
  "abstracts": [
    { "interface": "Shape", "candidates": ["*Circle", "Square"] }
  ]
}`)
}

const ownerSource = `package models

import fx "github.com/sghaida/fixtures/hydrate"

//go:generate go run ../../cmd/hydrategen -spec ./models.hydrate.json -out ./hydrate.gen.go

var _ = fx.NewRegistry

type Order struct{ ID string }

func NewOrder() Order { return Order{} }
`

//
// -----------------------------------------------------------------------------
// Small helpers
// -----------------------------------------------------------------------------

// writeTempFile writes a file under dir/name and returns its full path.
func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// readFileString reads a file and returns its contents as string (fatal on error).
func readFileString(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(b)
}

// makeUnreadableGoFile creates a .go path that os.ReadFile cannot read.
// Prefers a broken symlink; falls back to chmod(000) on a real file.
func makeUnreadableGoFile(t *testing.T, dir, name string) {
	t.Helper()

	p := filepath.Join(dir, name)
	if err := os.Symlink(filepath.Join(dir, "does-not-exist-target"), p); err == nil {
		return
	}

	require.NoError(t, os.WriteFile(p, []byte("package models\n"), 0o644))
	require.NoError(t, os.Chmod(p, 0o000))
	t.Cleanup(func() { _ = os.Chmod(p, 0o644) })
}

// requirePanicContains asserts fn panics and the panic message contains wantSub.
func requirePanicContains(t *testing.T, wantSub string, fn func()) {
	t.Helper()

	defer func() {
		recovered := recover()
		require.NotNil(t, recovered)

		var message string
		switch v := recovered.(type) {
		case error:
			message = v.Error()
		case string:
			message = v
		default:
			message = fmt.Sprintf("%v", v)
		}
		require.Contains(t, message, wantSub)
	}()

	fn()
}

//
// -----------------------------------------------------------------------------
// writeFileAtomic() seam helpers
// -----------------------------------------------------------------------------

// fakeTempFile is a controllable file-like object for writeFileAtomic tests.
type fakeTempFile struct {
	fileName string
	writeErr error
	closeErr error
}

func (f *fakeTempFile) Name() string { return f.fileName }

func (f *fakeTempFile) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return len(p), nil
}

func (f *fakeTempFile) Close() error { return f.closeErr }

// restoreWriteSeams puts the real file seams back when t finishes.
func restoreWriteSeams(t *testing.T) {
	t.Helper()
	origCreate, origRemove, origChmod, origRename := createTempFile, removeFile, chmodFile, renameFile
	t.Cleanup(func() {
		createTempFile = origCreate
		removeFile = origRemove
		chmodFile = origChmod
		renameFile = origRename
	})
}
