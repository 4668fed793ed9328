package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/kalambet/devfolio/internal/config"
	"github.com/kalambet/devfolio/internal/profile"
	"github.com/kalambet/devfolio/internal/profileview"
	"github.com/kalambet/devfolio/internal/session"
	"github.com/kalambet/devfolio/internal/storage"
	"github.com/kalambet/devfolio/internal/tui"
)

// --- view ---

var viewCmd = &cobra.Command{
	Use:   "view [user-id]",
	Short: "Show a user's profile page",
	Long: `Show a user's profile page with their owned and collaborated projects.

Without a user id the page of the signed-in user is shown.

Examples:
  devfolio view
  devfolio view 665f1c2ab0e4 --plain
  devfolio view 665f1c2ab0e4 --json
  devfolio view 665f1c2ab0e4 --plain --open 66a0b3`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plain, _ := cmd.Flags().GetBool("plain")
		asJSON, _ := cmd.Flags().GetBool("json")
		open, _ := cmd.Flags().GetString("open")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		explicit := ""
		if len(args) == 1 {
			explicit = args[0]
		}
		subject, err := a.session.ResolveSubject(explicit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		interactive := !plain && !asJSON && open == "" && isTerminal(out)

		if interactive {
			return runInteractive(cmd, a, subject)
		}

		setupLogging(a.cfg.Log.Level, stderr)
		notifier := stderrNotifier{}
		// Links go to stderr in JSON mode so stdout stays one JSON document.
		links := linkPrinter{webURL: a.cfg.View.WebURL, w: out}
		if asJSON {
			links.w = stderr
		}
		view, err := a.newView(links, notifier)
		if err != nil {
			return err
		}
		defer view.Close()

		page := view.Refresh(cmd.Context(), subject)

		if asJSON {
			doc := jsonPage{Page: page}
			if open != "" {
				intent, err := openProject(view, page, open)
				if err != nil {
					return err
				}
				doc.Navigation = &intent
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		}

		styles := tui.DefaultStyles()
		if noColor || !isTerminal(out) {
			styles = tui.PlainStyles()
		}
		fmt.Fprint(out, tui.RenderPage(page, tui.RenderOptions{Styles: styles, Selected: -1}))

		if open != "" {
			if _, err := openProject(view, page, open); err != nil {
				return err
			}
		}
		return nil
	},
}

// jsonPage is the --json document: the page plus the intent chosen by --open.
type jsonPage struct {
	profileview.Page
	Navigation *profileview.NavigationIntent `json:"navigation,omitempty"`
}

func openProject(view *profileview.View, page profileview.Page, id string) (profileview.NavigationIntent, error) {
	intent, err := view.SelectProject(id)
	if err != nil {
		if errors.Is(err, profileview.ErrUnknownProject) && page.Phase != profileview.PhaseReady {
			return intent, fmt.Errorf("%w (page did not load)", err)
		}
		return intent, err
	}
	return intent, nil
}

func runInteractive(cmd *cobra.Command, a *app, subject string) error {
	logPath := filepath.Join(a.cfg.Storage.DataDir, "devfolio.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	setupLogging(a.cfg.Log.Level, logFile)

	view, err := a.newView(nil, nil)
	if err != nil {
		return err
	}
	defer view.Close()

	intent, err := tui.Run(cmd.Context(), view, subject, tui.Options{NoColor: noColor})
	if err != nil {
		return err
	}
	if intent != nil {
		printStep("Open %s", projectLink(a.cfg.View.WebURL, *intent))
	}
	return nil
}

// isTerminal is swapped in tests.
var isTerminal = func(w any) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func init() {
	viewCmd.Flags().Bool("plain", false, "render once to stdout instead of the interactive page")
	viewCmd.Flags().Bool("json", false, "print the page as JSON")
	viewCmd.Flags().String("open", "", "after rendering, print the link of this project")
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent project fetches",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		subject, _ := cmd.Flags().GetString("subject")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.store.RecentFetches(subject, limit)
		if err != nil {
			return fmt.Errorf("reading history: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No fetches recorded.")
			return nil
		}
		for _, r := range records {
			line := fmt.Sprintf("%s  %-20s  %s  owned=%d collaborated=%d",
				r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				r.Subject,
				colorize(outcomeColor(r.Outcome), fmt.Sprintf("%-9s", r.Outcome)),
				r.OwnedCount,
				r.CollaboratedCount,
			)
			if r.Message != "" {
				line += "  " + r.Message
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of fetches to list")
	historyCmd.Flags().String("subject", "", "only list fetches for this user id")
}

// --- session ---

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the signed-in user and credential",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the signed-in user's profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(a.session.CurrentUser); err != nil {
			return err
		}

		if a.session.Credential == "" {
			printStatus("Credential", "none (requests are sent unauthenticated)")
			return nil
		}
		if id, err := session.SubjectFromCredential(a.session.Credential); err == nil {
			printStatus("Credential", "present (user %s)", id)
		} else {
			printStatus("Credential", "present (no user id: %v)", err)
		}
		return nil
	},
}

var sessionSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a profile field",
	Long: fmt.Sprintf(`Set a field of the signed-in user's profile.

Keys: %v
Skills take a comma-separated list or a JSON array.`, profile.Keys),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.profiles.SetField(key, value); err != nil {
			return err
		}
		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear <key>",
	Short: "Clear a profile field",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.profiles.ClearField(args[0]); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				printWarning("%s was not set", args[0])
				return nil
			}
			return err
		}
		printSuccess("Cleared %s", args[0])
		return nil
	},
}

var sessionLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the credential sent with backend requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		if token == "" {
			return fmt.Errorf("--token is required")
		}

		id, err := session.SubjectFromCredential(token)
		if err != nil {
			printWarning("Token carries no user id (%v); pass a user id to `devfolio view`", err)
		}
		if err := saveToken(token); err != nil {
			return fmt.Errorf("saving credential: %w", err)
		}
		if id != "" {
			printSuccess("Signed in as %s", id)
		} else {
			printSuccess("Credential saved")
		}
		return nil
	},
}

var sessionLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := clearToken(); err != nil {
			return fmt.Errorf("removing credential: %w", err)
		}
		printSuccess("Signed out")
		return nil
	},
}

// Secret store access, swapped in tests.
var (
	saveToken  = config.SaveToken
	clearToken = config.ClearToken
)

func init() {
	sessionLoginCmd.Flags().String("token", "", "JWT issued by the backend")
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionSetCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	sessionCmd.AddCommand(sessionLoginCmd)
	sessionCmd.AddCommand(sessionLogoutCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(out, "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend reachability, session and local data",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			printError("config error: %v", err)
			return nil
		}
		defer a.Close()

		if a.cfg.Backend.BaseURL == "" {
			printStatus("Backend", "not configured")
		} else {
			printStatus("Backend", "%s (%s)", a.cfg.Backend.BaseURL, probeBackend(cmd.Context(), a.cfg.Backend.BaseURL))
		}

		if a.session.CurrentUser.Name != "" {
			printStatus("Signed-in user", "%s", a.session.CurrentUser.Name)
		}
		if id, err := a.session.ResolveSubject(""); err == nil {
			printStatus("Default subject", "%s", id)
		} else {
			printStatus("Default subject", "none")
		}

		if records, err := a.store.RecentFetches("", 1); err == nil && len(records) > 0 {
			last := records[0]
			printStatus("Last fetch", "%s for %s (%s)", last.Outcome, last.Subject, last.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		printStatus("Data dir", "%s", a.cfg.Storage.DataDir)
		slog.Debug("status shown")
		return nil
	},
}
