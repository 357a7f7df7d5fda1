package domain

import (
	"regexp"
	"strings"
)

// HandlerTag identifies which persona queue owns a task. The set is closed:
// tags double as the prefix of the task-id grammar, so adding one requires a
// migration of the id pattern below.
type HandlerTag string

const (
	HandlerSage    HandlerTag = "sage"
	HandlerScribe  HandlerTag = "scribe"
	HandlerDev     HandlerTag = "dev"
	HandlerAnalyst HandlerTag = "analyst"
	HandlerPixel   HandlerTag = "pixel"
	HandlerClient  HandlerTag = "client"
)

type handlerInfo struct {
	name string
	role string
}

var handlers = map[HandlerTag]handlerInfo{
	HandlerSage:    {name: "Sage", role: "Research & Strategy"},
	HandlerScribe:  {name: "Scribe", role: "Content & Copy"},
	HandlerDev:     {name: "Dev", role: "Web Development"},
	HandlerAnalyst: {name: "Analyst", role: "Data & Analytics"},
	HandlerPixel:   {name: "Pixel", role: "Design & Creative"},
	HandlerClient:  {name: "Client", role: "Client Success"},
}

// taskIDPattern is the task-id grammar: <handlerTag>-<digits> over the closed
// tag set. It is matched as a substring, anywhere in a message.
var taskIDPattern = regexp.MustCompile(`(?:sage|scribe|dev|analyst|pixel|client)-\d+`)

// IsValid checks if the tag is one of the known handlers.
func (t HandlerTag) IsValid() bool {
	_, ok := handlers[t]
	return ok
}

// DisplayName returns the human-readable name shown in operator messages.
func (t HandlerTag) DisplayName() string {
	return handlers[t].name
}

// Role returns the handler's role description for dashboard display.
func (t HandlerTag) Role() string {
	return handlers[t].role
}

// HandlerTags returns all known tags in stable order.
func HandlerTags() []HandlerTag {
	return []HandlerTag{
		HandlerSage, HandlerScribe, HandlerDev,
		HandlerAnalyst, HandlerPixel, HandlerClient,
	}
}

// ExtractTaskID returns the first substring of text matching the task-id
// grammar, or "" when none is present.
func ExtractTaskID(text string) string {
	return taskIDPattern.FindString(text)
}

// IsTaskID reports whether s is exactly a well-formed task id.
func IsTaskID(s string) bool {
	return ExtractTaskID(s) == s && s != ""
}

// HandlerFromID returns the tag portion of a task id.
func HandlerFromID(id string) (HandlerTag, bool) {
	prefix, _, ok := strings.Cut(id, "-")
	if !ok {
		return "", false
	}
	tag := HandlerTag(prefix)
	return tag, tag.IsValid()
}

// SplitResponse extracts the reply content from a message containing id:
// everything after the first occurrence of the id, trimmed, with leading
// separator characters stripped. When nothing follows the id, the whole
// message is the content.
func SplitResponse(text, id string) string {
	_, after, found := strings.Cut(text, id)
	if !found {
		return strings.TrimSpace(text)
	}
	after = strings.TrimSpace(after)
	after = strings.TrimSpace(strings.TrimLeft(after, "-:"))
	if after == "" {
		return strings.TrimSpace(text)
	}
	return after
}
