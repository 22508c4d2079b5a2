// Package cli implements the oledmenu command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"oledmenu/internal/buildinfo"
	"oledmenu/internal/config"
)

// ConfigError marks failures in loading or validating configuration.
type ConfigError struct{ Err error }

func (e *ConfigError) Error() string { return "configuration error: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

type App struct {
	ConfigPath  string
	ControlAddr string

	environ []string
}

func NewRootCmd() *cobra.Command {
	app := &App{environ: os.Environ()}

	cmd := &cobra.Command{
		Use:           "oledmenu",
		Short:         "Remote menu server for a small OLED with five buttons",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Run on the device
  oledmenu serve

  # Try it in a terminal
  oledmenu serve --display term --input virtual

  # Switch the display from another shell
  oledmenu stats off
  oledmenu text 'hello\nworld'
`),
	}
	cmd.PersistentFlags().StringVarP(&app.ConfigPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&app.ControlAddr, "control", "", "control surface address (default from config)")

	cmd.AddCommand(
		newServeCmd(app),
		newStatsCmd(app),
		newTextCmd(app),
		newPressCmd(app),
		newVersionCmd(),
	)
	return cmd
}

func (a *App) loadConfig() (config.Config, error) {
	cfg, err := config.Load(a.ConfigPath, a.environ)
	if err != nil {
		return config.Config{}, &ConfigError{Err: err}
	}
	return cfg, nil
}

func (a *App) controlURL(path string) (string, error) {
	addr := a.ControlAddr
	if addr == "" {
		cfg, err := a.loadConfig()
		if err != nil {
			return "", err
		}
		addr = cfg.Control.Addr
	}
	if addr == "" {
		return "", &ConfigError{Err: errors.New("control surface is disabled")}
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return strings.TrimRight(addr, "/") + path, nil
}

var httpClient = &http.Client{Timeout: 5 * time.Second}

// request calls the control surface and copies its reply to out.
func (a *App) request(cmd *cobra.Command, method, path string) error {
	u, err := a.controlURL(path)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(cmd.Context(), method, u, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("control: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("control: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(body)))
	return nil
}

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "stats on|off",
		Short:     "Show or blank the statistics screen",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.request(cmd, http.MethodGet, "/stats/"+args[0])
		},
	}
}

func newTextCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "text <message>",
		Short: `Show static text; "\n" starts a new line`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := strings.Join(args, " ")
			return app.request(cmd, http.MethodGet, "/text/"+url.PathEscape(msg))
		},
	}
}

func newPressCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "press <button>",
		Short:     "Press a virtual button (up, down, left, right, center)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down", "left", "right", "center"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.request(cmd, http.MethodPost, "/press/"+url.PathEscape(args[0]))
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}
