// streamwatch subscribes to the market tick stream and renders it in the terminal.
// Usage: go run ./cmd/streamwatch --url ws://localhost:8080/api/v1/market/ws
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/fenilmodi00/market-backend/handlers"
	"github.com/fenilmodi00/market-backend/models"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/api/v1/market/ws", "stream websocket url")
	caller := flag.String("caller", "", "caller id forwarded in the X-Caller-ID header")
	history := flag.Int("history", 10, "number of ticks kept on screen")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	header := http.Header{}
	if *caller != "" {
		header.Set(handlers.CallerIDHeader, *caller)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, *url, header)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to %s: %v\n", *url, err)
		os.Exit(1)
	}
	defer conn.Close()

	ticks := make(chan models.TickSnapshot)
	streamErr := make(chan error, 1)
	go readTicks(conn, ticks, streamErr)

	model := newWatchModel(*url, *history, ticks, streamErr)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(time.Second))
}

// readTicks decodes snapshots until the connection fails
func readTicks(conn *websocket.Conn, ticks chan<- models.TickSnapshot, streamErr chan<- error) {
	for {
		var tick models.TickSnapshot
		if err := conn.ReadJSON(&tick); err != nil {
			streamErr <- err
			return
		}
		ticks <- tick
	}
}
