package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/fretes/internal/config"
	"github.com/sadopc/fretes/internal/rpc"
	"github.com/sadopc/fretes/internal/store"
	"github.com/sadopc/fretes/internal/tui"
)

func main() {
	config.LoadDotEnv()
	cfg := config.LoadClient()

	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "fretes")
		if err != nil {
			fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	s, err := store.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	sessions := store.NewSessionStore(s)
	client := rpc.New(cfg.APIURL,
		rpc.WithProxySecret(cfg.ProxySecret),
		rpc.WithCredentials(sessions),
		rpc.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)

	app := tui.NewApp(client, sessions)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
