package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/SyntropyNet/syntropy-l3router/internal/config"
	"github.com/SyntropyNet/syntropy-l3router/internal/dispatcher"
	"github.com/SyntropyNet/syntropy-l3router/internal/topology"
	"github.com/SyntropyNet/syntropy-l3router/pkg/common"
)

var addrComparer = cmp.Comparer(func(a, b netip.Addr) bool { return a == b })

func TestDecode(t *testing.T) {
	type testEntry struct {
		raw      string
		expected dispatcher.Event
	}

	testData := []testEntry{
		{
			`{"id":"1","type":"SWITCH_ADDED","data":{"dpid":3}}`,
			dispatcher.SwitchAdded{Switch: 3},
		},
		{
			`{"id":"2","type":"SWITCH_REMOVED","data":{"dpid":3}}`,
			dispatcher.SwitchRemoved{Switch: 3},
		},
		{
			`{"id":"3","type":"SWITCH_PORT_CHANGED","data":{"dpid":3,"port":2,"up":true}}`,
			dispatcher.SwitchPortChanged{Switch: 3, Port: 2, Up: true},
		},
		{
			`{"id":"4","type":"HOST_ADDED","data":{"device_id":"aa:bb","ipv4":"10.0.0.1","dpid":1,"port":5}}`,
			dispatcher.HostAdded{Host: topology.Host{
				DeviceID:   "aa:bb",
				IP:         netip.MustParseAddr("10.0.0.1"),
				Attachment: topology.Endpoint{Switch: 1, Port: 5},
				Attached:   true,
			}},
		},
		{
			`{"id":"5","type":"HOST_MOVED","data":{"device_id":"aa:bb"}}`,
			dispatcher.HostMoved{Host: topology.Host{DeviceID: "aa:bb"}},
		},
		{
			`{"id":"6","type":"HOST_REMOVED","data":{"device_id":"aa:bb"}}`,
			dispatcher.HostRemoved{DeviceID: "aa:bb"},
		},
		{
			`{"id":"7","type":"HOST_VLAN_CHANGED","data":{"device_id":"aa:bb","vlan":10}}`,
			dispatcher.HostVLANChanged{DeviceID: "aa:bb", VLAN: 10},
		},
		{
			`{"id":"8","type":"LINKS_UPDATED","data":[
				{"src_dpid":1,"src_port":1,"dst_dpid":2,"dst_port":1},
				{"src_dpid":2,"src_port":2,"dst_dpid":3,"dst_port":1,"removed":true}]}`,
			dispatcher.LinksUpdated{Updates: []topology.LinkUpdate{
				{Link: topology.Link{
					Src: topology.Endpoint{Switch: 1, Port: 1},
					Dst: topology.Endpoint{Switch: 2, Port: 1},
				}},
				{Link: topology.Link{
					Src: topology.Endpoint{Switch: 2, Port: 2},
					Dst: topology.Endpoint{Switch: 3, Port: 1},
				}, Operation: topology.LinkRemoved},
			}},
		},
	}

	for _, tc := range testData {
		ev, err := Decode([]byte(tc.raw))
		if err != nil {
			t.Errorf("%s: decode failed: %v", tc.raw, err)
			continue
		}
		if diff := cmp.Diff(tc.expected, ev, addrComparer); diff != "" {
			t.Errorf("Event mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`{"id":"1","type":"GET_INFO","data":{}}`))
	if !errors.Is(err, ErrUnknownMessage) {
		t.Errorf("Expected ErrUnknownMessage, got %v", err)
	}

	invalid := []string{
		`not json`,
		`{"type":"SWITCH_ADDED","data":{}}`,
		`{"type":"HOST_ADDED","data":{"ipv4":"10.0.0.1"}}`,
		`{"type":"HOST_ADDED","data":{"device_id":"a","ipv4":"10.0.0.300"}}`,
		`{"type":"LINKS_UPDATED","data":{"src_dpid":1}}`,
	}
	for _, raw := range invalid {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Errorf("%s: expected decode error", raw)
		}
	}
}

type chanSink chan dispatcher.Event

func (cs chanSink) Post(ctx context.Context, ev dispatcher.Event) error {
	select {
	case cs <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestFeed(t *testing.T) {
	replies := make(chan []byte, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/topology" || r.Header.Get("authorization") != "secret" ||
			r.Header.Get("x-version") != config.GetVersion() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		for _, msg := range []string{
			`{"id":"1","type":"SWITCH_ADDED","data":{"dpid":1}}`,
			`{"id":"2","type":"SWITCH_ADDED","data":{"dpid":2}}`,
			`{"id":"3","type":"LINKS_UPDATED","data":[{"src_dpid":1,"src_port":1,"dst_dpid":2,"dst_port":1}]}`,
			`{"id":"4","type":"NOT_A_TOPOLOGY_EVENT","data":{}}`,
			`{"id":"5","type":"SWITCH_REMOVED","data":{"dpid":2}}`,
		} {
			ws.WriteMessage(websocket.TextMessage, []byte(msg))
		}

		_, raw, err := ws.ReadMessage()
		if err == nil {
			replies <- raw
		}
		// keep connection open until client leaves
		ws.ReadMessage()
	}))
	defer srv.Close()

	t.Setenv("L3ROUTING_CONTROLLER_URL", strings.TrimPrefix(srv.URL, "http://"))
	t.Setenv("L3ROUTING_CONTROLLER_PATH", "/topology")
	t.Setenv("L3ROUTING_CONTROLLER_TOKEN", "secret")
	t.Setenv("L3ROUTING_CONTROLLER_TLS", "false")
	config.Init()

	dir := topology.NewDirectory()
	sink := make(chanSink, 8)
	feed := New(dir, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := feed.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var events []dispatcher.Event
	for len(events) < 4 {
		select {
		case ev := <-sink:
			events = append(events, ev)
		case <-time.After(5 * time.Second):
			t.Fatalf("Timeout waiting for events, got %v", events)
		}
	}

	kinds := []string{}
	for _, ev := range events {
		kinds = append(kinds, ev.Kind())
	}
	expected := []string{
		dispatcher.KindSwitchAdded,
		dispatcher.KindSwitchAdded,
		dispatcher.KindLinksUpdated,
		dispatcher.KindSwitchRemoved,
	}
	if diff := cmp.Diff(expected, kinds); diff != "" {
		t.Errorf("Events mismatch (-want +got):\n%s", diff)
	}

	// directory is updated before the event is posted
	if !dir.HasSwitch(1) || dir.HasSwitch(2) {
		t.Errorf("Unexpected switches %v", dir.Switches())
	}
	if len(dir.Links()) != 0 {
		t.Errorf("Links of removed switch kept: %v", dir.Links())
	}

	select {
	case raw := <-replies:
		var resp common.ErrorResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			t.Fatalf("Invalid error response %s: %v", raw, err)
		}
		if resp.ID != "4" || resp.MsgType != "ERROR" || resp.Data.Type != "NOT_A_TOPOLOGY_EVENT" {
			t.Errorf("Unexpected error response %s", raw)
		}
	case <-time.After(5 * time.Second):
		t.Error("No error response for unknown message")
	}

	cancel()
	deadline := time.Now().Add(5 * time.Second)
	for feed.Running() {
		if time.Now().After(deadline) {
			t.Fatal("Feed did not stop")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
