package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dweymouth/mediabridge/backend"
	"github.com/dweymouth/mediabridge/backend/bus"
	"github.com/dweymouth/mediabridge/backend/ipc"
	"github.com/dweymouth/mediabridge/res"
)

func main() {
	flag.Parse()
	if *backend.FlagVersion {
		fmt.Println(res.AppVersion)
		return
	}
	if *backend.FlagHelp {
		flag.Usage()
		return
	}
	if backend.HaveCommandLineOptions() {
		if err := runClient(); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", res.AppName, err)
			os.Exit(1)
		}
		return
	}

	myApp, err := backend.StartupApp(res.AppName, res.DisplayName, res.AppVersionTag)
	if err != nil {
		if errors.Is(err, backend.ErrAnotherInstance) {
			slog.Info("Another instance is already running")
			return
		}
		slog.Error("Fatal startup error", slog.String("stack", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	myApp.OnExit = stop

	<-ctx.Done()
	slog.Info("Running shutdown tasks...")
	myApp.Shutdown()
}

// runClient handles the flags that talk to a running daemon.
func runClient() error {
	cli, err := ipc.Connect()
	if err != nil {
		return fmt.Errorf("no running instance found at %s", ipc.Address())
	}

	switch {
	case *backend.FlagUpdate:
		u, err := backend.UpdateFromFlags()
		if err != nil {
			return err
		}
		return cli.SendUpdate(u)
	case *backend.FlagQuit:
		return cli.Quit()
	case *backend.FlagListen:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return cli.SubscribeControl(ctx, func(ev bus.ControlEvent) {
			b, err := bus.Encode(ev)
			if err != nil {
				return
			}
			fmt.Println(string(b))
		})
	}
	return errors.New("nothing to do: pass -update, -listen or -quit")
}
