package main

import (
	"context"
	"os"

	"bucketq/internal/cli"
)

func main() {
	app := &cli.App{}
	defer app.Close()

	if err := cli.NewRootCmd(app).ExecuteContext(context.Background()); err != nil {
		app.Close()
		os.Exit(1)
	}
}
