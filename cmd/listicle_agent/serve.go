package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/getlisticled/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort    int
	serveOrigins string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server exposing POST /search, POST /estimate, GET /variants and GET /health.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config or PORT, else 8080)")
	serveCmd.Flags().StringVar(&serveOrigins, "cors-origins", "", "Comma-separated allowed CORS origins (default any)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	port := a.cfg.Port
	if servePort > 0 {
		port = servePort
	}

	srv, err := server.New(server.Config{
		Port:           port,
		Finder:         a.service,
		Logger:         a.log,
		AllowedOrigins: splitList(serveOrigins),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
