package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	expect "github.com/Netflix/go-expect"
	"github.com/creack/pty"

	"github.com/abelbrown/catalog/internal/store"
)

// buildCatalog builds the catalog binary for testing.
// Returns the path to the binary and a cleanup function.
func buildCatalog(t *testing.T) (string, func()) {
	t.Helper()
	dir := t.TempDir()
	binPath := filepath.Join(dir, "catalog")

	// Get the project root directory
	rootDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	// Assume we are in test/e2e, go up 2 levels
	rootDir = filepath.Join(rootDir, "..", "..")

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/catalog")
	cmd.Dir = rootDir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build failed: %v\n%s", err, out)
	}

	return binPath, func() { os.RemoveAll(dir) }
}

func TestE2E_SearchAndQuit(t *testing.T) {
	if testing.Short() {
		t.Skip("e2e: builds the binary")
	}
	binPath, cleanup := buildCatalog(t)
	defer cleanup()

	srv := newFixtureServer()
	defer srv.Close()

	// Setup a clean home directory for the test to avoid messing with real data
	homeDir := t.TempDir()

	var outputBuf bytes.Buffer
	console, err := expect.NewConsole(
		expect.WithStdout(&outputBuf),
		expect.WithDefaultTimeout(5*time.Second),
	)
	if err != nil {
		t.Fatalf("failed to create console: %v", err)
	}
	defer console.Close()

	if err := pty.Setsize(console.Tty(), &pty.Winsize{Cols: 120, Rows: 40}); err != nil {
		t.Fatalf("failed to set pty size: %v", err)
	}

	cmd := exec.Command(binPath, "browse", "/en/tool")
	cmd.Env = append(os.Environ(),
		"HOME="+homeDir,
		"CATALOG_CONFIG="+filepath.Join(homeDir, "config.json"),
		"CATALOG_API_URL="+srv.URL,
	)
	cmd.Stdin = console.Tty()
	cmd.Stdout = console.Tty()
	cmd.Stderr = console.Tty()
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	defer func() { _ = cmd.Process.Kill() }()

	// 1. Initial listing arrives without any input.
	t.Log("Waiting for initial results...")
	if _, err := console.ExpectString("Fixture Entry One"); err != nil {
		t.Fatalf("initial results not shown: %v\nScreen:\n%s", err, outputBuf.String())
	}
	if _, err := console.ExpectString("2 results"); err != nil {
		t.Fatalf("status bar total not shown: %v\nScreen:\n%s", err, outputBuf.String())
	}

	// 2. Open the query input and submit a search.
	time.Sleep(300 * time.Millisecond) // Allow UI to stabilize
	if _, err := console.Send("/"); err != nil {
		t.Fatalf("failed to send slash: %v", err)
	}
	if _, err := console.ExpectString("search the catalog"); err != nil {
		t.Fatalf("query input not shown: %v\nScreen:\n%s", err, outputBuf.String())
	}
	if _, err := console.Send("quill\r"); err != nil {
		t.Fatalf("failed to send query: %v", err)
	}

	// 3. The address is rewritten and the narrowed page arrives.
	if _, err := console.ExpectString("/en/tool?q=quill"); err != nil {
		t.Fatalf("address not rewritten: %v\nScreen:\n%s", err, outputBuf.String())
	}
	if _, err := console.ExpectString("1 results"); err != nil {
		t.Fatalf("narrowed results not shown: %v\nScreen:\n%s", err, outputBuf.String())
	}

	// 4. Quit.
	time.Sleep(300 * time.Millisecond)
	if _, err := console.Send("q"); err != nil {
		t.Fatalf("failed to send q: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("process exited with error: %v\nScreen:\n%s", err, outputBuf.String())
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Process did not exit after 'q'")
	}

	// The submitted query reached the service in canonical request form
	// and was remembered for autocomplete.
	found := false
	for _, q := range srv.Queries() {
		if strings.Contains(q, "q=quill") && strings.Contains(q, "page=1") && strings.Contains(q, "limit=12") {
			found = true
		}
	}
	if !found {
		t.Errorf("no request for q=quill, saw %v", srv.Queries())
	}

	st, err := store.Open(filepath.Join(homeDir, ".catalog", "history.db"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer st.Close()
	recent, err := st.Recent(time.Now(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Query != "quill" {
		t.Errorf("history = %+v, want [quill]", recent)
	}
}
