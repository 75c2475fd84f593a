package eventbus

import (
	"fmt"
	"strings"
)

func streamNameFor(keyPrefix, eventType string) string {
	return keyPrefix + nameFor("events", eventType)
}

// dlqStreamName returns the single dead-letter stream shared by all types.
func dlqStreamName(keyPrefix string) string {
	return keyPrefix + "dlq:events"
}

func groupNameFor(keyPrefix, eventType string) string {
	return keyPrefix + nameFor("group", eventType)
}

// nameFor turns "contribution.created" into "events:contribution:created".
func nameFor(prefix, eventType string) string {
	parts := strings.Split(strings.ToLower(eventType), ".")
	return fmt.Sprintf("%s:%s", prefix, strings.Join(parts, ":"))
}
