// cmd/gemhelper/main.go
//
// This is the entry point for the gemhelper CLI. Run it from a gem's root
// directory (or point --dir at one); every subcommand is a task from the
// helper's command table and runs its prerequisites first, so
// `gemhelper release` guards, builds, tags, pushes and publishes.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := newApp().run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
