package eventbus

import (
	"fmt"
	"strings"
)

func streamNameFor(prefix, eventType string) string {
	return nameFor(prefix, "events", eventType)
}

// dlqStreamName returns the DLQ stream name for the given event type.
func dlqStreamName(prefix, eventType string) string {
	return nameFor(prefix, "dlq", eventType)
}

// groupNameFor returns the Redis consumer group name for the event type.
func groupNameFor(prefix, eventType string) string {
	return nameFor(prefix, "group", eventType)
}

// nameFor builds "<prefix><kind>:<dotted:type:as:colons>".
func nameFor(prefix, kind, eventType string) string {
	return fmt.Sprintf("%s%s:%s", prefix, kind, strings.ToLower(strings.ReplaceAll(eventType, ".", ":")))
}

func topicNameFor(prefix, eventType string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "ledger.events"
	}
	return fmt.Sprintf("%s.%s", prefix, strings.ToLower(eventType))
}

func parseBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
