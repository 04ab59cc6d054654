// Package main provides doku, a local daily documentation store with a
// browser UI.
package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/oliverschmidt99/daily-doc-app/internal/cli"

	"github.com/gin-gonic/gin"
)

func main() {
	environ := os.Environ()
	env := make(map[string]string, len(environ))

	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	gin.SetMode(gin.ReleaseMode)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	exitCode := cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, env, sigCh)

	os.Exit(exitCode)
}
