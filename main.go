package main

import (
	"fmt"
	"os"

	"github.com/km-arc/go-spring/framework/console"
	"github.com/km-arc/go-spring/framework/container"
	"github.com/km-arc/go-spring/internal/demo"
)

func main() {
	cli := console.New(
		[]container.Provider{demo.Provider{}},
		console.WithDefaults(demo.Resources(), demo.Classpath()),
	)
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gospring:", err)
		os.Exit(1)
	}
}
