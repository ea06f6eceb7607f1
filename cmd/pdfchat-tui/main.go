package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/kailas-cloud/pdfchat/internal/tui"
	"github.com/kailas-cloud/pdfchat/internal/version"
	pdfchat "github.com/kailas-cloud/pdfchat/pkg/sdk"
)

func main() {
	_ = godotenv.Load()

	var (
		addr      string
		sessionID string
		apiKey    string
		timeout   time.Duration
	)
	flag.StringVar(&addr, "addr", envOr("PDFCHAT_URL", "http://localhost:8000"), "pdfchat API base URL")
	flag.StringVar(&sessionID, "session", "", "chat session id (random if empty)")
	flag.StringVar(&apiKey, "api-key", os.Getenv("PDFCHAT_API_KEY"), "admin bearer key")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "per-request timeout")
	flag.Parse()

	if sessionID == "" {
		sessionID = "tui-" + uuid.NewString()[:8]
	}

	client, err := pdfchat.New(addr,
		pdfchat.WithTimeout(timeout),
		pdfchat.WithAPIKey(apiKey),
		pdfchat.WithUserAgent(fmt.Sprintf("pdfchat-tui/%s", version.Version)),
	)
	if err != nil {
		log.Fatalf("create client: %v", err)
	}

	p := tea.NewProgram(tui.New(client, sessionID, timeout), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("tui error: %v", err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
