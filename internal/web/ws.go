package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"gnssrx/internal/gnss"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPingPeriod = 30 * time.Second
)

// handleWS streams hub events as JSON text messages. The optional query
// parameter protocol=ubx,nmea limits the stream; errors=0 drops anomalies.
func handleWS(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseProtocolFilter(r.URL.Query().Get("protocol"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		withErrors := r.URL.Query().Get("errors") != "0"

		upgrader := websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id, events := hub.Subscribe(0)
		defer hub.Unsubscribe(id)

		// The read side only detects the peer going away.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(wsPingPeriod)
		defer ping.Stop()
		for {
			select {
			case <-gone:
				return
			case <-r.Context().Done():
				return
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.Error != "" && !withErrors {
					continue
				}
				if filter != nil && !filter[ev.Protocol] {
					continue
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			}
		}
	}
}

func parseProtocolFilter(q string) (map[string]bool, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	out := make(map[string]bool)
	for _, name := range strings.Split(q, ",") {
		p, err := gnss.ParseProtocol(name)
		if err != nil {
			return nil, err
		}
		out[p.String()] = true
	}
	return out, nil
}
