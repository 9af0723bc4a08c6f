package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"
)

// runAdmin dispatches admin subcommands against a running control plane.
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "status":
		return runAdminStatus(args[1:])
	case "disable-agent":
		return runAdminFlip(args[1:], "agents", http.MethodPost)
	case "enable-agent":
		return runAdminFlip(args[1:], "agents", http.MethodDelete)
	case "disable-model":
		return runAdminFlip(args[1:], "models", http.MethodPost)
	case "enable-model":
		return runAdminFlip(args[1:], "models", http.MethodDelete)
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: warden admin <command> [options]

Commands:
  status           Show current kill-switch state
  disable-agent    Disable an agent via the kill switch
  enable-agent     Re-enable a disabled agent
  disable-model    Disable a model via the kill switch
  enable-model     Re-enable a disabled model
  help             Show this help message

Examples:
  warden admin status
  warden admin disable-agent --id payments-agent
  warden admin enable-model --id gpt-4o --addr http://warden.internal:8010
`)
}

// adminToken returns the admin token from the environment, prompting on
// the terminal when it is unset.
func adminToken() (string, error) {
	if tok := os.Getenv("WARDEN_ADMIN_TOKEN"); tok != "" {
		return tok, nil
	}
	fmt.Fprint(os.Stderr, "Admin token: ")
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func adminDo(method, url, token string) ([]byte, error) {
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, url, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func runAdminStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	addr := fs.String("addr", "http://localhost:8010", "control plane base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	body, err := adminDo(http.MethodGet, *addr+"/api/v1/kill-switch", "")
	if err != nil {
		return err
	}

	var status struct {
		DisabledAgents []string `json:"disabled_agents"`
		DisabledModels []string `json:"disabled_models"`
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return fmt.Errorf("decode status: %w", err)
	}

	if len(status.DisabledAgents) == 0 && len(status.DisabledModels) == 0 {
		fmt.Println("Kill switch clear: nothing disabled.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KIND\tID")
	for _, id := range status.DisabledAgents {
		_, _ = fmt.Fprintf(w, "agent\t%s\n", id)
	}
	for _, id := range status.DisabledModels {
		_, _ = fmt.Fprintf(w, "model\t%s\n", id)
	}
	return w.Flush()
}

func runAdminFlip(args []string, kind, method string) error {
	fs := flag.NewFlagSet("kill-switch", flag.ContinueOnError)
	id := fs.String("id", "", "agent or model ID (required)")
	addr := fs.String("addr", "http://localhost:8010", "control plane base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	token, err := adminToken()
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/kill-switch/%s/%s", *addr, kind, *id)
	if _, err := adminDo(method, url, token); err != nil {
		return err
	}

	verb := "disabled"
	if method == http.MethodDelete {
		verb = "enabled"
	}
	fmt.Fprintf(os.Stderr, "%s %s %s\n", strings.TrimSuffix(kind, "s"), *id, verb)
	return nil
}
