package main

import (
	"context"
	"time"

	"github.com/PrzemekSkw/totp-sync/internal/app"
)

func main() {
	application := app.New()
	wait := application.Start()
	<-wait

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	application.Stop(ctx)
}
