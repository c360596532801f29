package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"mailsort/internal/api"
	"mailsort/internal/app"
	"mailsort/internal/credential"
	"mailsort/internal/model"
	"mailsort/internal/retry"
	"mailsort/internal/store"
)

func main() {
	login := flag.Bool("login", false, "store a session token read from stdin and exit")
	logout := flag.Bool("logout", false, "remove the stored session token and exit")
	reports := flag.Bool("reports", false, "print recent bulk operation reports and exit")
	reportID := flag.String("report", "", "print one bulk operation report in full and exit")
	configPath := flag.String("config", "", "path to the config file")
	flag.Parse()

	if *login {
		if err := storeToken(); err != nil {
			fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("session token stored")
		return
	}
	if *logout {
		if err := credential.Delete(credential.SessionTokenKey); err != nil {
			fmt.Fprintf(os.Stderr, "logout failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("session token removed")
		return
	}

	path := *configPath
	if path == "" {
		path = model.DefaultConfigPath()
	}
	cfg, err := model.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load config %s: %v\n", path, err)
		os.Exit(1)
	}
	// First run: materialize the defaults so there is a file to edit.
	if *configPath == "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := model.SaveConfig(path, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "cannot write default config: %v\n", err)
			}
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot determine home directory: %v\n", err)
		os.Exit(1)
	}
	configDir := filepath.Join(home, ".config", "mailsort")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "cannot create %s: %v\n", configDir, err)
		os.Exit(1)
	}

	db, err := store.NewSQLiteStore(filepath.Join(configDir, "mailsort.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// Report history is local; no session needed.
	if *reports || *reportID != "" {
		if err := printReports(os.Stdout, db, *reportID); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// The terminal belongs to Bubble Tea; logs go to a file.
	logFile, err := os.OpenFile(
		filepath.Join(configDir, "mailsort.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		0o644,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := log.New(logFile, "", log.LstdFlags)

	token, err := credential.Get(credential.SessionTokenKey)
	if err != nil {
		if credential.IsNotFound(err) {
			fmt.Fprintln(os.Stderr, "no session token found, run: mailsort -login")
		} else {
			fmt.Fprintf(os.Stderr, "cannot read session token: %v\n", err)
		}
		os.Exit(1)
	}

	client := api.NewClient(cfg.Server.BaseURL, token, retry.FromConfig(cfg.Retry, api.Retryable))
	client.SetTimeout(time.Duration(cfg.Server.TimeoutSec) * time.Second)

	// "plain" drops to monochrome for terminals without color support.
	if cfg.Display.Theme == "plain" {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	p := tea.NewProgram(app.New(client, db, cfg, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// storeToken reads one line from stdin and stores it in the keyring. The
// token is piped in so it never lands in shell history.
func storeToken() error {
	fmt.Fprintln(os.Stderr, "paste the session token and press enter:")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("reading token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return fmt.Errorf("empty token")
	}
	return credential.Set(credential.SessionTokenKey, token)
}

// printReports writes archived bulk reports: one line each by default, or
// the full per-email outcome list when an id is given.
func printReports(w io.Writer, s store.Store, id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if id != "" {
		rec, err := s.GetReportByID(ctx, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("no report with id %s", id)
		}
		_, err = io.WriteString(w, formatReport(rec))
		return err
	}

	records, err := s.GetReports(ctx, store.ReportFilter{Limit: 20})
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, formatReports(records))
	return err
}

// formatReports renders one summary line per report, newest first.
func formatReports(records []store.ReportRecord) string {
	if len(records) == 0 {
		return "no bulk operation reports recorded\n"
	}
	var b strings.Builder
	for _, r := range records {
		fmt.Fprintf(&b, "%s  %-12s account %-4d %d ok, %d failed  %s\n",
			r.FinishedAt.Format("2006-01-02 15:04"), r.Kind, r.AccountID,
			r.Successes, r.Failures, r.ID)
	}
	return b.String()
}

// formatReport renders a single report with its per-email outcomes.
func formatReport(r *store.ReportRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s report %s\n", r.Kind, r.ID)
	fmt.Fprintf(&b, "account %d, finished %s\n", r.AccountID, r.FinishedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "%d succeeded, %d failed\n", r.Successes, r.Failures)
	for _, o := range r.Outcomes {
		status := "ok"
		if !o.Success {
			status = "failed"
		}
		fmt.Fprintf(&b, "  email %d: %s", o.EmailID, status)
		if o.Message != "" {
			fmt.Fprintf(&b, ": %s", o.Message)
		}
		b.WriteString("\n")
	}
	return b.String()
}
