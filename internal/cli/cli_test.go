package cli

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bucketq/internal/meta"
	"bucketq/internal/store"
	"bucketq/internal/store/memory"
)

type testEnv struct {
	t     *testing.T
	store string
}

func newTestEnv(t *testing.T) *testEnv {
	dir := t.TempDir()
	chdir(t, dir)
	return &testEnv{t: t, store: "sqlite://" + filepath.Join(dir, "cli.db")}
}

// run executes one command line against a fresh App, as the binary would.
func (e *testEnv) run(stdin string, args ...string) (string, error) {
	e.t.Helper()
	app := &App{}
	cmd := NewRootCmd(app)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--store", e.store, "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	app.Close()
	return out.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run("", args...)
	if err != nil {
		e.t.Fatalf("Failed to run %v: %v", args, err)
	}
	return out
}

func lines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestPutGetFinish(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun("init")

	if out := e.mustRun("put", "echo a", "--id", "a"); strings.TrimSpace(out) != "a" {
		t.Errorf("Expected id 'a', got %q", out)
	}
	out, err := e.run("# comment\nb1\n\n  b2  \n", "put", "--file", "-")
	if err != nil {
		t.Fatalf("Failed to put from stdin: %v", err)
	}
	if got := len(lines(out)); got != 2 {
		t.Errorf("Expected 2 ids from file, got %d: %q", got, out)
	}
	if left := strings.TrimSpace(e.mustRun("left")); left != "3" {
		t.Errorf("Expected 3 pending, got %s", left)
	}

	got := strings.TrimSpace(e.mustRun("get", "-v"))
	id, body, ok := strings.Cut(got, "\t")
	if !ok || id == "" || body == "" {
		t.Fatalf("Expected id and body, got %q", got)
	}
	if queued := lines(e.mustRun("queued", "--ids")); len(queued) != 1 || queued[0] != id {
		t.Errorf("Expected [%s] queued, got %v", id, queued)
	}
	if queued := lines(e.mustRun("queued")); len(queued) != 1 || queued[0] != body {
		t.Errorf("Expected [%s] queued, got %v", body, queued)
	}

	e.mustRun("finish", id)
	finished := lines(e.mustRun("finished", "-v"))
	if len(finished) != 1 || finished[0] != id+"\t"+body {
		t.Errorf("Expected finished %s, got %v", id, finished)
	}
	if left := strings.TrimSpace(e.mustRun("left")); left != "2" {
		t.Errorf("Expected 2 pending, got %s", left)
	}

	status := e.mustRun("status")
	if !strings.Contains(status, "finished") || !strings.Contains(status, "pending") {
		t.Errorf("Expected every state in status, got %q", status)
	}
}

func TestInitAndGetEmptyPrintNothing(t *testing.T) {
	e := newTestEnv(t)
	if out := e.mustRun("init"); out != "" {
		t.Errorf("Expected init to print nothing, got %q", out)
	}
	if out := e.mustRun("get"); out != "" {
		t.Errorf("Expected empty get to print nothing, got %q", out)
	}
}

func TestPendingPrintsBodies(t *testing.T) {
	e := newTestEnv(t)
	id := strings.TrimSpace(e.mustRun("put", "echo hi"))

	if out := e.mustRun("pending"); out != "echo hi\n" {
		t.Errorf("Expected body only, got %q", out)
	}
	if out := e.mustRun("pending", "-v"); out != id+"\techo hi\n" {
		t.Errorf("Expected id and body, got %q", out)
	}
	if out := e.mustRun("pending", "--ids"); out != id+"\n" {
		t.Errorf("Expected id only, got %q", out)
	}
}

// initTracker counts Init calls so tests can see when a command prepares
// the backing store.
type initTracker struct {
	*memory.Store
	inits int
}

func (s *initTracker) Init(ctx context.Context) error {
	s.inits++
	return s.Store.Init(ctx)
}

var tracked = &initTracker{Store: memory.New()}

func init() {
	store.Register("inittrack", func(context.Context, *url.URL) (store.ObjectStore, error) {
		return tracked, nil
	})
}

func TestPutInitializesStore(t *testing.T) {
	e := newTestEnv(t)
	e.store = "inittrack://"
	tracked.inits = 0

	e.mustRun("put", "echo hi")
	if tracked.inits != 1 {
		t.Errorf("Expected put to init the store once, got %d", tracked.inits)
	}
	if out := e.mustRun("pending"); out != "echo hi\n" {
		t.Errorf("Expected the job to be stored, got %q", out)
	}
}

func TestForcedGetAndReput(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun("put", "one", "--id", "1")
	e.mustRun("put", "two", "--id", "2")

	e.mustRun("get", "--force")
	if q := lines(e.mustRun("queued")); len(q) != 0 {
		t.Errorf("Expected forced get to skip queued, got %v", q)
	}

	e.mustRun("get")
	if out := e.mustRun("reput", "--all"); len(lines(out)) != 1 {
		t.Errorf("Expected one job reput, got %q", out)
	}
	if left := strings.TrimSpace(e.mustRun("left")); left != "1" {
		t.Errorf("Expected 1 pending, got %s", left)
	}

	e.mustRun("delete", "1", "2")
	e.mustRun("drop")
	if left := strings.TrimSpace(e.mustRun("left")); left != "0" {
		t.Errorf("Expected empty queue, got %s", left)
	}
}

func TestMetaCommands(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun("meta-upd", `{"a":{"b":1},"tags":["x"]}`)
	e.mustRun("meta-upd", "a:\n  c: true\ntags: [y]\n")

	doc, err := meta.Parse(e.mustRun("meta-get"))
	if err != nil {
		t.Fatalf("Failed to parse meta-get output: %v", err)
	}
	want := meta.MustParse(`{"a":{"b":1,"c":true},"tags":["x","y"]}`)
	if !doc.Equal(want) {
		t.Errorf("Expected %s, got %s", want, doc)
	}

	sub, err := meta.Parse(e.mustRun("meta-get", "-q", "$.tags[-1]"))
	if err != nil {
		t.Fatalf("Failed to parse query output: %v", err)
	}
	if !sub.Equal(meta.String("y")) {
		t.Errorf("Expected \"y\", got %s", sub)
	}

	if got := len(lines(e.mustRun("meta-log"))); got != 2 {
		t.Errorf("Expected 2 log entries, got %d", got)
	}
	e.mustRun("meta-squash")
	if got := len(lines(e.mustRun("meta-log"))); got != 0 {
		t.Errorf("Expected empty log after squash, got %d", got)
	}

	e.mustRun("meta-drop")
	if out := strings.TrimSpace(e.mustRun("meta-get")); out != "null" {
		t.Errorf("Expected null after drop, got %q", out)
	}
}

func TestMetaUpdRejectsBadPatch(t *testing.T) {
	e := newTestEnv(t)
	if _, err := e.run("", "meta-upd", "{a: [1"); err == nil {
		t.Errorf("Expected invalid patch to fail")
	}
}

func TestLocksCommands(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustRun("locks", "list")
	if len(lines(out)) != 1 {
		t.Errorf("Expected only the header, got %q", out)
	}
	if out := e.mustRun("locks", "sweep"); !strings.Contains(out, "Removed 0") {
		t.Errorf("Expected nothing swept, got %q", out)
	}
}

func TestConfigSetGet(t *testing.T) {
	e := newTestEnv(t)
	if out := e.mustRun("config", "get", "queue.max_queued"); strings.TrimSpace(out) != "0" {
		t.Errorf("Expected default 0, got %q", out)
	}
	e.mustRun("config", "set", "queue.max_queued", "5")
	if out := e.mustRun("config", "get", "queue.max_queued"); strings.TrimSpace(out) != "5" {
		t.Errorf("Expected 5, got %q", out)
	}
}

func TestWorkerStatusAndStop(t *testing.T) {
	e := newTestEnv(t)
	if out := e.mustRun("worker", "status"); !strings.Contains(out, "not running") {
		t.Errorf("Expected not running, got %q", out)
	}
	e.mustRun("worker", "stop")
	if out := e.mustRun("worker", "status"); !strings.Contains(out, "not running") {
		t.Errorf("Expected not running after stop, got %q", out)
	}
}

// chdir changes the working directory for the duration of the test,
// like testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("chdir back: %v", err)
		}
	})
}
