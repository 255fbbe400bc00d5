// discovery package receives topology notifications from the controller
// discovery services over a websocket feed. Switch and link state is kept
// in a topology.Directory, every notification is then posted as an event.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SyntropyNet/syntropy-l3router/internal/config"
	"github.com/SyntropyNet/syntropy-l3router/internal/dispatcher"
	"github.com/SyntropyNet/syntropy-l3router/internal/env"
	"github.com/SyntropyNet/syntropy-l3router/internal/logger"
	"github.com/SyntropyNet/syntropy-l3router/internal/topology"
	"github.com/SyntropyNet/syntropy-l3router/pkg/common"
	"github.com/SyntropyNet/syntropy-l3router/pkg/slock"
)

const (
	pkgName = "Discovery. "
	cmd     = "DISCOVERY_FEED"

	reconnectDelay   = 3 * time.Second
	handshakeTimeout = 10 * time.Second
)

// EventSink consumes decoded events. Implemented by dispatcher.Dispatcher.
// Post may block, the feed stops reading until the event is accepted.
type EventSink interface {
	Post(ctx context.Context, ev dispatcher.Event) error
}

type Feed struct {
	slock.AtomicServiceLock
	mu      sync.Mutex // serializes writers, gorilla allows one
	ws      *websocket.Conn
	dir     *topology.Directory
	sink    EventSink
	url     url.URL
	token   string
	version string
}

func New(dir *topology.Directory, sink EventSink) *Feed {
	scheme := "ws"
	if config.ControllerTLS() {
		scheme = "wss"
	}

	return &Feed{
		dir:  dir,
		sink: sink,
		url: url.URL{
			Scheme: scheme,
			Host:   config.GetControllerURL(),
			Path:   config.GetControllerPath(),
		},
		token:   config.GetControllerToken(),
		version: config.GetVersion(),
	}
}

func (f *Feed) Name() string {
	return cmd
}

func (f *Feed) connect(ctx context.Context) error {
	headers := http.Header{}
	headers.Set("authorization", f.token)
	headers.Set("x-module", env.ModuleName)
	headers.Set("x-version", f.version)

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}

	ws, resp, err := dialer.DialContext(ctx, f.url.String(), headers)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("%s dial: %w (HTTP %d)", f.url.String(), err, resp.StatusCode)
		}
		return fmt.Errorf("%s dial: %w", f.url.String(), err)
	}

	f.mu.Lock()
	f.ws = ws
	f.mu.Unlock()

	logger.Info().Println(pkgName, "Connected to", f.url.String())
	return nil
}

func (f *Feed) disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ws == nil {
		return
	}
	f.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	f.ws.Close()
	f.ws = nil
}

func (f *Feed) conn() *websocket.Conn {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.ws
}

// Run connects to the feed and keeps receiving notifications until ctx is done.
// Lost connection is reestablished.
func (f *Feed) Run(ctx context.Context) error {
	if !f.TryLock() {
		return fmt.Errorf("%s is already running", cmd)
	}

	// Unblock reader on shutdown
	go func() {
		<-ctx.Done()
		f.disconnect()
	}()

	go func() {
		defer f.TryUnlock()
		for {
			if ctx.Err() != nil {
				logger.Debug().Println(pkgName, "stopping", cmd)
				return
			}

			ws := f.conn()
			if ws == nil {
				if err := f.connect(ctx); err != nil {
					logger.Warning().Println(pkgName, err, "Reconnecting in", reconnectDelay)
					select {
					case <-ctx.Done():
					case <-time.After(reconnectDelay):
					}
				}
				continue
			}

			_, raw, err := ws.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					logger.Warning().Println(pkgName, "read error:", err)
				}
				f.disconnect()
				continue
			}
			f.process(ctx, raw)
		}
	}()

	return nil
}

// process applies switch and link changes to the directory before
// posting the event, so that routing sees the new topology
func (f *Feed) process(ctx context.Context, raw []byte) {
	ev, err := Decode(raw)
	if err != nil {
		logger.Warning().Println(pkgName, err)
		f.reject(raw, err)
		return
	}

	switch e := ev.(type) {
	case dispatcher.SwitchAdded:
		f.dir.AddSwitch(e.Switch)
	case dispatcher.SwitchRemoved:
		f.dir.RemoveSwitch(e.Switch)
	case dispatcher.LinksUpdated:
		f.dir.Apply(e.Updates...)
	}

	if err := f.sink.Post(ctx, ev); err != nil && ctx.Err() == nil {
		logger.Error().Println(pkgName, err)
	}
}

func (f *Feed) reject(raw []byte, cause error) {
	var hdr common.MessageHeader
	json.Unmarshal(raw, &hdr)

	resp, err := json.Marshal(common.NewErrorResponse(hdr.ID, hdr.MsgType, cause))
	if err != nil {
		return
	}
	if _, err := f.Write(resp); err != nil {
		logger.Debug().Println(pkgName, "error response:", err)
	}
}

// Write sends one text message to the controller.
// It is used for error responses and controller logging.
func (f *Feed) Write(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ws == nil {
		return 0, fmt.Errorf("%s is not connected", cmd)
	}
	if err := f.ws.WriteMessage(websocket.TextMessage, b); err != nil {
		return 0, err
	}
	return len(b), nil
}
