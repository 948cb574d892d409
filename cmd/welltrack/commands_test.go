package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/loykin/welltrack"
)

func init() { color.NoColor = true }

type harness struct {
	cmd command
	out *bytes.Buffer
	api APIFlags
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := welltrack.DefaultConfig()
	cfg.Store.DSN = "memory://"
	app, err := welltrack.New(cfg, nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	srv := httptest.NewServer(app.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = app.Close()
	})
	out := &bytes.Buffer{}
	return &harness{
		cmd: command{out: out, in: strings.NewReader(""), sessions: newSessionManagerAt(t.TempDir())},
		out: out,
		api: APIFlags{APIUrl: srv.URL + "/api", APITimeout: 5 * time.Second},
	}
}

func (h *harness) login(t *testing.T, user string) {
	t.Helper()
	if err := h.cmd.Login(LoginFlags{Username: user, APIFlags: h.api}); err != nil {
		t.Fatalf("login %s: %v", user, err)
	}
	h.out.Reset()
}

func TestLoginSavesSession(t *testing.T) {
	h := newHarness(t)
	if err := h.cmd.Login(LoginFlags{Username: "user1", APIFlags: h.api}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(h.out.String(), "Logged in as user1 (entry)") {
		t.Fatalf("unexpected output: %s", h.out)
	}
	s, err := h.cmd.sessions.LoadSession()
	if err != nil || s == nil {
		t.Fatalf("session not saved: %v", err)
	}
	if s.Token == "" || s.ServerURL != h.api.APIUrl || s.Role != "entry" {
		t.Fatalf("unexpected session: %+v", s)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	h := newHarness(t)
	err := h.cmd.Login(LoginFlags{Username: "mallory", APIFlags: h.api})
	if err == nil || !strings.Contains(err.Error(), "login failed") {
		t.Fatalf("expected login failure, got %v", err)
	}
	if h.cmd.sessions.IsLoggedIn() {
		t.Fatal("no session should be saved")
	}
}

func TestLoginUnreachable(t *testing.T) {
	h := newHarness(t)
	api := h.api
	api.APIUrl = "http://127.0.0.1:1/api"
	api.APITimeout = 200 * time.Millisecond
	err := h.cmd.Login(LoginFlags{Username: "user1", APIFlags: api})
	if err == nil || !strings.Contains(err.Error(), "not reachable") {
		t.Fatalf("expected unreachable error, got %v", err)
	}
}

func TestCommandsWithoutSessionExplainLogin(t *testing.T) {
	h := newHarness(t)
	err := h.cmd.Wells(ReportFlags{APIFlags: h.api})
	if err == nil || !strings.Contains(err.Error(), "welltrack login") {
		t.Fatalf("expected login hint, got %v", err)
	}
}

func TestRecordLifecycle(t *testing.T) {
	h := newHarness(t)
	h.login(t, "user1")

	if err := h.cmd.Anchor(AnchorFlags{Well: "SN-113", Date: "2024-01-01", APIFlags: h.api}); err != nil {
		t.Fatalf("anchor: %v", err)
	}
	if !strings.Contains(h.out.String(), "Saved SN-113 / Rig Release on 2024-01-01") {
		t.Fatalf("unexpected anchor output: %s", h.out)
	}
	h.out.Reset()

	err := h.cmd.Set(SetFlags{Well: "SN-113", Process: "Frac Execution", Start: "2024-01-20", End: "2024-01-25", APIFlags: h.api})
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if !strings.Contains(h.out.String(), "2024-01-20 -> 2024-01-25") {
		t.Fatalf("unexpected set output: %s", h.out)
	}
	h.out.Reset()

	err = h.cmd.Set(SetFlags{Well: "SN-113", Process: "Frac Execution", Start: "2024-02-01", End: "2024-01-25", APIFlags: h.api})
	if err == nil || !strings.Contains(err.Error(), "start date must be") {
		t.Fatalf("expected validation error, got %v", err)
	}

	if err := h.cmd.Show(WellFlags{Well: "SN-113", Today: "2024-02-01", APIFlags: h.api}); err != nil {
		t.Fatalf("show: %v", err)
	}
	out := h.out.String()
	for _, want := range []string{"SN-113 (HBF) as of 2024-02-01", "days remaining", "Frac Execution", "2024-01-20", "Add dates"} {
		if !strings.Contains(out, want) {
			t.Fatalf("show output missing %q:\n%s", want, out)
		}
	}
	h.out.Reset()

	if err := h.cmd.Wells(ReportFlags{Today: "2024-02-01", APIFlags: h.api}); err != nil {
		t.Fatalf("wells: %v", err)
	}
	if !strings.Contains(h.out.String(), "SN-113") || !strings.Contains(h.out.String(), "No Rig Release date") {
		t.Fatalf("unexpected wells output: %s", h.out)
	}
}

func TestUnknownStageIsReported(t *testing.T) {
	h := newHarness(t)
	h.login(t, "user1")
	err := h.cmd.Set(SetFlags{Well: "SN-113", Process: "Coffee Break", Start: "2024-01-20", APIFlags: h.api})
	if err == nil || !strings.Contains(err.Error(), "unknown_process") {
		t.Fatalf("expected unknown process, got %v", err)
	}
}

func TestViewerCannotWrite(t *testing.T) {
	h := newHarness(t)
	h.login(t, "viewer1")
	err := h.cmd.Anchor(AnchorFlags{Well: "SN-113", Date: "2024-01-01", APIFlags: h.api})
	if err == nil || !strings.Contains(err.Error(), "entry role") {
		t.Fatalf("expected permission hint, got %v", err)
	}
	if err := h.cmd.Dashboard(ReportFlags{APIFlags: h.api}); err != nil {
		t.Fatalf("viewer dashboard: %v", err)
	}
}

func TestDeletePromptCancel(t *testing.T) {
	h := newHarness(t)
	h.login(t, "user1")
	if err := h.cmd.Anchor(AnchorFlags{Well: "SN-114", Date: "2024-01-01", APIFlags: h.api}); err != nil {
		t.Fatal(err)
	}
	h.out.Reset()

	h.cmd.in = strings.NewReader("n\n")
	if err := h.cmd.Delete(DeleteFlags{Well: "SN-114", Process: "Rig Release", APIFlags: h.api}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	out := h.out.String()
	if !strings.Contains(out, "Delete Rig Release for SN-114? [y/N]") || !strings.Contains(out, "Deletion cancelled") {
		t.Fatalf("unexpected output: %s", out)
	}

	h.out.Reset()
	if err := h.cmd.Show(WellFlags{Well: "SN-114", APIFlags: APIFlags{APIUrl: h.api.APIUrl, APITimeout: h.api.APITimeout, JSON: true}}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(h.out.String(), `"start_date": "2024-01-01"`) {
		t.Fatalf("record should survive a cancelled delete: %s", h.out)
	}
}

func TestDeletePromptConfirm(t *testing.T) {
	h := newHarness(t)
	h.login(t, "user1")
	if err := h.cmd.Anchor(AnchorFlags{Well: "SN-114", Date: "2024-01-01", APIFlags: h.api}); err != nil {
		t.Fatal(err)
	}
	h.out.Reset()

	h.cmd.in = strings.NewReader("yes\n")
	if err := h.cmd.Delete(DeleteFlags{Well: "SN-114", Process: "Rig Release", APIFlags: h.api}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(h.out.String(), "Deleted SN-114 / Rig Release") {
		t.Fatalf("unexpected output: %s", h.out)
	}

	err := h.cmd.Delete(DeleteFlags{Well: "SN-114", Process: "Rig Release", Yes: true, APIFlags: h.api})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("deleting a missing record should fail with 404, got %v", err)
	}
}

func TestDeleteYesSkipsPrompt(t *testing.T) {
	h := newHarness(t)
	h.login(t, "user1")
	if err := h.cmd.Anchor(AnchorFlags{Well: "SR-603", Date: "2024-01-01", APIFlags: h.api}); err != nil {
		t.Fatal(err)
	}
	h.out.Reset()
	if err := h.cmd.Delete(DeleteFlags{Well: "SR-603", Process: "Rig Release", Yes: true, APIFlags: h.api}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if strings.Contains(h.out.String(), "[y/N]") {
		t.Fatalf("--yes should not prompt: %s", h.out)
	}
}

func TestWorkflowShowAndSet(t *testing.T) {
	h := newHarness(t)
	h.login(t, "user1")

	if err := h.cmd.Workflow(WorkflowFlags{Well: "SR-603", APIFlags: h.api}); err != nil {
		t.Fatalf("workflow: %v", err)
	}
	if !strings.Contains(h.out.String(), "SR-603 uses workflow HBF") || !strings.Contains(h.out.String(), "Unhook") {
		t.Fatalf("unexpected output: %s", h.out)
	}
	h.out.Reset()

	if err := h.cmd.Workflow(WorkflowFlags{Well: "SR-603", Set: "HAF", APIFlags: h.api}); err != nil {
		t.Fatalf("set workflow: %v", err)
	}
	if !strings.Contains(h.out.String(), "SR-603 uses workflow HAF") || strings.Contains(h.out.String(), "Unhook") {
		t.Fatalf("unexpected output: %s", h.out)
	}

	err := h.cmd.Workflow(WorkflowFlags{Well: "SR-603", Set: "XYZ", APIFlags: h.api})
	if err == nil || !strings.Contains(err.Error(), "unknown_workflow") {
		t.Fatalf("expected unknown workflow, got %v", err)
	}
}

func TestDashboardRendersSections(t *testing.T) {
	h := newHarness(t)
	h.login(t, "user1")
	if err := h.cmd.Anchor(AnchorFlags{Well: "SNN-11", Date: "2024-01-01", APIFlags: h.api}); err != nil {
		t.Fatal(err)
	}
	h.out.Reset()
	if err := h.cmd.Dashboard(ReportFlags{Today: "2024-02-01", APIFlags: h.api}); err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	out := h.out.String()
	for _, want := range []string{"Completion Progress Days (2024-02-01)", "Progress overview", "SNN-11", "Missing Rig Release or On stream dates"} {
		if !strings.Contains(out, want) {
			t.Fatalf("dashboard output missing %q:\n%s", want, out)
		}
	}
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	if err := h.cmd.Logout(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(h.out.String(), "No active session found") {
		t.Fatalf("unexpected output: %s", h.out)
	}
	h.login(t, "user1")
	if err := h.cmd.Logout(); err != nil {
		t.Fatal(err)
	}
	if h.cmd.sessions.IsLoggedIn() {
		t.Fatal("session should be cleared")
	}
}

func TestGenCert(t *testing.T) {
	h := newHarness(t)
	dir := filepath.Join(t.TempDir(), "tls")
	if err := h.cmd.GenCert(GenCertFlags{Dir: dir, Hosts: []string{"localhost", "127.0.0.1"}, ValidDays: 30}); err != nil {
		t.Fatalf("gen-cert: %v", err)
	}
	for _, name := range []string{"tls.crt", "tls.key"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("%s not written: %v", name, err)
		}
	}
}
