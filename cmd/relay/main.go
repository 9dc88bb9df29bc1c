// Command relay is the edge proxy between the terminal client and the
// spreadsheet backend.
package main

import (
	"errors"
	"log"
	"net/http"

	"github.com/sadopc/fretes/internal/config"
	"github.com/sadopc/fretes/internal/relay"
)

func main() {
	config.LoadDotEnv()
	cfg := config.LoadRelay()

	var opts []relay.Option
	if cfg.RateLimit > 0 {
		if rdb := relay.NewRedisClient(cfg.RedisAddr); rdb != nil {
			defer rdb.Close()
			opts = append(opts, relay.WithLimiter(relay.NewRedisLimiter(rdb, cfg.RateLimit)))
			log.Printf("rate limit: %d req/min via %s", cfg.RateLimit, cfg.RedisAddr)
		} else {
			log.Printf("rate limit disabled: redis unavailable at %q", cfg.RedisAddr)
		}
	}
	if cfg.BackendURL == "" {
		log.Printf("APPS_SCRIPT_URL is not set; every request will fail")
	}

	e := relay.New(cfg, opts...).Echo()
	if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
