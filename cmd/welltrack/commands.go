package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	itls "github.com/loykin/welltrack/internal/tls"
	"github.com/loykin/welltrack/pkg/client"
)

type command struct {
	out      io.Writer
	in       io.Reader
	sessions *SessionManager
}

// apiClient builds a client for f, authenticated from the saved session
// when there is one.
func (c *command) apiClient(f APIFlags) (*client.Client, error) {
	session, err := c.sessions.LoadSession()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	cfg := client.DefaultConfig()
	cfg.Timeout = f.APITimeout
	cfg.Insecure = f.Insecure
	if f.CACert != "" {
		cfg.TLS = &client.TLSClientConfig{CACert: f.CACert}
	}
	if session != nil {
		cfg.BaseURL = session.ServerURL
		cfg.Token = session.Token
	}
	if f.APIUrl != "" {
		cfg.BaseURL = f.APIUrl
	}
	return client.New(cfg), nil
}

// explain adds a next step to errors the user can act on.
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case client.IsStatus(err, http.StatusUnauthorized):
		return fmt.Errorf("%w (run 'welltrack login --username=<name>')", err)
	case client.IsStatus(err, http.StatusForbidden):
		return fmt.Errorf("%w (this action needs the entry role)", err)
	default:
		return err
	}
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// Login exchanges a username for a session token and saves it.
func (c *command) Login(f LoginFlags) error {
	if strings.TrimSpace(f.Username) == "" {
		return errors.New("username is required")
	}
	cl, err := c.apiClient(f.APIFlags)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if !cl.IsReachable(ctx) {
		return fmt.Errorf("server not reachable at %s - please start the daemon first with 'welltrack serve'", cl.BaseURL())
	}

	result, err := cl.Login(ctx, f.Username)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if result.Token == nil {
		return errors.New("login failed: server returned no token")
	}

	session := &Session{
		Token:     result.Token.Value,
		TokenType: result.Token.Type,
		ExpiresAt: result.Token.ExpiresAt,
		Username:  result.Username,
		Role:      result.Role,
		ServerURL: cl.BaseURL(),
	}
	if err := c.sessions.SaveSession(session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	_, _ = fmt.Fprintf(c.out, "Logged in as %s (%s)\n", result.Username, result.Role)
	_, _ = fmt.Fprintf(c.out, "Session saved to %s\n", c.sessions.GetSessionPath())
	_, _ = fmt.Fprintf(c.out, "Token expires at: %s\n", result.Token.ExpiresAt.Format(time.RFC3339))
	return nil
}

// Logout clears the saved session
func (c *command) Logout() error {
	if !c.sessions.IsLoggedIn() {
		_, _ = fmt.Fprintln(c.out, "No active session found")
		return nil
	}
	if err := c.sessions.ClearSession(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	_, _ = fmt.Fprintln(c.out, "Logged out successfully")
	return nil
}

func (c *command) Wells(f ReportFlags) error {
	cl, err := c.apiClient(f.APIFlags)
	if err != nil {
		return err
	}
	wells, err := cl.Wells(context.Background(), f.Today)
	if err != nil {
		return explain(err)
	}
	if f.JSON {
		return printJSON(c.out, wells)
	}
	return renderWells(c.out, wells)
}

func (c *command) Show(f WellFlags) error {
	cl, err := c.apiClient(f.APIFlags)
	if err != nil {
		return err
	}
	report, err := cl.Well(context.Background(), f.Well, f.Today)
	if err != nil {
		return explain(err)
	}
	if f.JSON {
		return printJSON(c.out, report)
	}
	return renderReport(c.out, report)
}

// Set replaces both dates of a stage record; an omitted date is stored empty.
func (c *command) Set(f SetFlags) error {
	cl, err := c.apiClient(f.APIFlags)
	if err != nil {
		return err
	}
	rec, err := cl.SetRecord(context.Background(), f.Well, f.Process, optional(f.Start), optional(f.End))
	if err != nil {
		return explain(err)
	}
	if f.JSON {
		return printJSON(c.out, rec)
	}
	_, _ = fmt.Fprintf(c.out, "Saved %s / %s: %s -> %s\n", rec.Well, rec.Process, orDash(rec.StartDate), orDash(rec.EndDate))
	return nil
}

func (c *command) Anchor(f AnchorFlags) error {
	if strings.TrimSpace(f.Date) == "" {
		return errors.New("date is required")
	}
	cl, err := c.apiClient(f.APIFlags)
	if err != nil {
		return err
	}
	rec, err := cl.SetAnchor(context.Background(), f.Well, f.Date)
	if err != nil {
		return explain(err)
	}
	if f.JSON {
		return printJSON(c.out, rec)
	}
	_, _ = fmt.Fprintf(c.out, "Saved %s / %s on %s\n", rec.Well, rec.Process, orDash(rec.StartDate))
	return nil
}

// Delete requests deletion, then confirms or cancels it. Without --yes the
// user is asked first; anything but y/yes cancels.
func (c *command) Delete(f DeleteFlags) error {
	cl, err := c.apiClient(f.APIFlags)
	if err != nil {
		return err
	}
	ctx := context.Background()
	pending, err := cl.RequestDelete(ctx, f.Well, f.Process)
	if err != nil {
		return explain(err)
	}

	if !f.Yes && !c.ask(fmt.Sprintf("Delete %s for %s? [y/N]: ", pending.Process, pending.Well)) {
		if err := cl.CancelDelete(ctx, pending.Token); err != nil {
			return explain(err)
		}
		_, _ = fmt.Fprintln(c.out, "Deletion cancelled")
		return nil
	}

	done, err := cl.ConfirmDelete(ctx, pending.Token)
	if err != nil {
		return explain(err)
	}
	_, _ = fmt.Fprintf(c.out, "Deleted %s / %s\n", done.Well, done.Process)
	return nil
}

func (c *command) ask(prompt string) bool {
	_, _ = fmt.Fprint(c.out, prompt)
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (c *command) Dashboard(f ReportFlags) error {
	cl, err := c.apiClient(f.APIFlags)
	if err != nil {
		return err
	}
	d, err := cl.Dashboard(context.Background(), f.Today)
	if err != nil {
		return explain(err)
	}
	if f.JSON {
		return printJSON(c.out, d)
	}
	return renderDashboard(c.out, d)
}

// Workflow shows the well's stage sequence, switching it first when
// f.Set names one.
func (c *command) Workflow(f WorkflowFlags) error {
	cl, err := c.apiClient(f.APIFlags)
	if err != nil {
		return err
	}
	ctx := context.Background()
	var wf client.Workflow
	if f.Set != "" {
		wf, err = cl.SetWorkflow(ctx, f.Well, f.Set)
	} else {
		wf, err = cl.Workflow(ctx, f.Well)
	}
	if err != nil {
		return explain(err)
	}
	if f.JSON {
		return printJSON(c.out, wf)
	}
	return renderWorkflow(c.out, wf)
}

// GenCert writes a self-signed server certificate for the daemon.
func (c *command) GenCert(f GenCertFlags) error {
	certPath, keyPath, err := itls.GenerateDir(f.Dir, f.Hosts, f.ValidDays)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.out, "Certificate: %s\nKey: %s\n", certPath, keyPath)
	return nil
}
