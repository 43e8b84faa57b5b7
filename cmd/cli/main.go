package main

import (
	"context"

	"github.com/dmolchanov/packvault/internal/client/cli"
	"github.com/dmolchanov/packvault/internal/client/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app := cli.NewApp(cfg)

	app.Run(ctx)

}
