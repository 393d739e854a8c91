// cmd/stratalaw/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dalemusser/stratalaw/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		fmt.Fprintf(os.Stderr, "stratalaw: %v\n", err)
		os.Exit(1)
	}
}
