package executors

import (
	"testing"

	"tastytracker/src/connectors"
)

func TestShouldTriggerSync(t *testing.T) {
	cases := []struct {
		msg  connectors.StreamerMessage
		want bool
	}{
		{connectors.StreamerMessage{Type: "Order"}, true},
		{connectors.StreamerMessage{Type: "order"}, true},
		{connectors.StreamerMessage{Type: "Fill"}, true},
		{connectors.StreamerMessage{Type: "CashBalance"}, true},
		{connectors.StreamerMessage{Type: "AccountTradingStatus"}, true},
		{connectors.StreamerMessage{Type: "connect", Status: "ok"}, false},
		{connectors.StreamerMessage{Type: "heartbeat"}, false},
		{connectors.StreamerMessage{}, false},
	}

	for _, tc := range cases {
		if got := shouldTriggerSync(tc.msg); got != tc.want {
			t.Fatalf("shouldTriggerSync(%q) = %v, want %v", tc.msg.Type, got, tc.want)
		}
	}
}
