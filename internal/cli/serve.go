package cli

import (
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"oledmenu/app"
	"oledmenu/internal/buildinfo"
	"oledmenu/internal/config"
	"oledmenu/internal/logging"
)

func newServeCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the menu server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.serveConfig(cmd)
			if err != nil {
				return err
			}

			log, closeLog, err := logging.New(logging.Options{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				File:   cfg.Log.File,
			}, logOutput(cmd, cfg.Display.Backend))
			if err != nil {
				return &ConfigError{Err: err}
			}
			defer closeLog()
			log.Info("starting", "version", buildinfo.Short(), "display", cfg.Display.Backend, "input", cfg.Input.Backend)

			ap, err := app.New(cfg, log)
			if err != nil {
				return err
			}
			defer ap.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return ap.Run(ctx)
		},
	}
	f := cmd.Flags()
	f.String("socket", "", "client socket path")
	f.String("display", "", "display backend: ssd1306, window, term or headless")
	f.String("input", "", "input backend: gpio or virtual")
	f.String("log-level", "", "debug, info, warn or error")
	f.String("listen", "", "control surface listen address; empty disables it (default --control)")
	return cmd
}

// serveConfig layers the serve flags over the loaded config. The global
// --control address is the listen address unless --listen is given.
func (a *App) serveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	for name, dst := range map[string]*string{
		"socket":    &cfg.Socket,
		"display":   &cfg.Display.Backend,
		"input":     &cfg.Input.Backend,
		"log-level": &cfg.Log.Level,
		"listen":    &cfg.Control.Addr,
	} {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	if !flags.Changed("listen") && a.ControlAddr != "" {
		cfg.Control.Addr = hostPort(a.ControlAddr)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, &ConfigError{Err: err}
	}
	return cfg, nil
}

// hostPort strips a scheme and path from a control URL.
func hostPort(addr string) string {
	if !strings.Contains(addr, "://") {
		return addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return addr
	}
	return u.Host
}

// logOutput keeps stderr logs off the terminal emulator's screen.
func logOutput(cmd *cobra.Command, display string) io.Writer {
	if display == config.DisplayTerm {
		return io.Discard
	}
	return cmd.ErrOrStderr()
}
