// Command menudemo builds a sample menu on a running oledmenu server.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"oledmenu/menu/client"
	"oledmenu/menu/transport"
)

func main() {
	var (
		socket  = flag.String("socket", transport.DefaultSocketPath, "Menu server socket.")
		delay   = flag.Duration("delay", 300*time.Millisecond, "Pause between progress lines.")
		verbose = flag.Bool("v", false, "Log received updates.")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(*socket, *delay, log); err != nil {
		fatalf("%v", err)
	}
}

func run(socket string, delay time.Duration, log *slog.Logger) error {
	c, err := client.Dial(socket, log)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := build(c, delay, log); err != nil {
		return fmt.Errorf("build menu: %w", err)
	}
	log.Info("menu ready", "socket", socket)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)
	select {
	case <-sig:
		return nil
	case <-c.Done():
		if err := c.Err(); !errors.Is(err, client.ErrClosed) {
			return err
		}
		return errors.New("server closed the connection")
	}
}

func build(c *client.Client, delay time.Duration, log *slog.Logger) error {
	if err := c.Reset(); err != nil {
		return err
	}
	root := c.Root()

	printer := func(label string, ret bool) func(*client.Function) bool {
		return func(f *client.Function) bool {
			_ = f.Print("Calling " + label)
			time.Sleep(delay)
			for i := 0; i < 10; i++ {
				_ = f.Print(fmt.Sprintf("printing line %d", i))
				time.Sleep(delay)
			}
			return ret
		}
	}

	a, err := root.NewFloat("a", 0, 0.1)
	if err != nil {
		return err
	}
	a.OnChange(func(v float64) { log.Debug("a changed", "value", v) })
	if _, err := root.NewInt("b", 0, 1); err != nil {
		return err
	}
	if _, err := root.NewBool("c", true); err != nil {
		return err
	}
	if _, err := root.NewFunction("func d", printer("callback1", true)); err != nil {
		return err
	}

	e, err := root.NewMenu("e menu")
	if err != nil {
		return err
	}
	ea, err := e.NewFloat("a", 0.1, 0.001)
	if err != nil {
		return err
	}
	if _, err := e.NewInt("b", 1, 1); err != nil {
		return err
	}
	if _, err := e.NewBool("c", false); err != nil {
		return err
	}
	if _, err := e.NewFunction("func d", printer("callback2", false)); err != nil {
		return err
	}
	adjust := func(label string, delta float64) func(*client.Function) bool {
		return func(f *client.Function) bool {
			_ = f.Print(label + " variable a")
			time.Sleep(delay)
			if err := ea.Set(ea.Value() + delta); err != nil {
				log.Warn("set a", "err", err)
			}
			return true
		}
	}
	if _, err := e.NewFunction("inc a", adjust("increasing", 0.01)); err != nil {
		return err
	}
	_, err = e.NewFunction("dec a", adjust("decreasing", -0.01))
	return err
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
