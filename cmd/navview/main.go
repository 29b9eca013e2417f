package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"

	"dungeonnav.ai/internal/observerproto"
)

func main() {
	var (
		addr   = flag.String("addr", "127.0.0.1:8080", "navsim http address")
		agents = flag.String("agents", "", "comma separated agent ids to watch (default: all)")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[navview] ", log.LstdFlags)

	boot, err := fetchBootstrap("http://" + *addr + "/v1/observer/bootstrap")
	if err != nil {
		logger.Fatalf("bootstrap: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+*addr+"/v1/observer/ws", nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	sub := observerproto.SubscribeMsg{Type: "SUBSCRIBE", ProtocolVersion: observerproto.Version}
	if *agents != "" {
		sub.Agents = strings.Split(*agents, ",")
	}
	if err := conn.WriteJSON(sub); err != nil {
		logger.Fatalf("subscribe: %v", err)
	}

	ticks := make(chan observerproto.TickMsg, 16)
	go func() {
		defer close(ticks)
		for {
			var msg observerproto.TickMsg
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			ticks <- msg
		}
	}()

	screen, err := tcell.NewScreen()
	if err != nil {
		logger.Fatalf("screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		logger.Fatalf("screen: %v", err)
	}
	defer screen.Fini()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	v := newFrameView(boot)
	redraw := func() {
		w, h := screen.Size()
		v.draw(screen, w, h)
		screen.Show()
	}
	redraw()

	for {
		select {
		case msg, ok := <-ticks:
			if !ok {
				return
			}
			v.apply(msg)
			redraw()
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
				redraw()
			case *tcell.EventKey:
				switch {
				case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
					return
				case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
					return
				case ev.Key() == tcell.KeyTab:
					v.cycleFollow()
					redraw()
				}
			}
		}
	}
}

func fetchBootstrap(url string) (observerproto.BootstrapResponse, error) {
	var boot observerproto.BootstrapResponse
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return boot, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return boot, fmt.Errorf("%s: %s", url, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&boot); err != nil {
		return boot, fmt.Errorf("decode bootstrap: %w", err)
	}
	if boot.ProtocolVersion != observerproto.Version {
		return boot, fmt.Errorf("protocol version %q, want %q", boot.ProtocolVersion, observerproto.Version)
	}
	return boot, nil
}
