package clustering

import (
	"encoding/json"
	"regexp"

	"github.com/tidwall/jsonc"
)

var (
	fencePattern = regexp.MustCompile("```(?:json)?\\s*\\n((?s:.*?))\\n```")
	spanPattern  = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)
)

// ParseResult is what could be recovered from a loosely structured completion
type ParseResult struct {
	// Parsed is the recovered JSON value, nil when nothing parsed
	Parsed json.RawMessage
	// Groups is set when Parsed is an array or has an array under "groups"
	Groups [][]string
}

// ParseCompletion recovers JSON from model output. It tries, in order, the whole
// text, the first fenced code block and the widest {...} or [...] span. Comments
// and trailing commas are tolerated.
func ParseCompletion(content string) ParseResult {
	parsed, ok := parseJSON(content)
	if !ok {
		if m := fencePattern.FindStringSubmatch(content); m != nil {
			parsed, ok = parseJSON(m[1])
		}
	}
	if !ok {
		if m := spanPattern.FindStringSubmatch(content); m != nil {
			parsed, ok = parseJSON(m[1])
		}
	}
	if !ok {
		return ParseResult{}
	}

	return ParseResult{Parsed: parsed, Groups: extractGroups(parsed)}
}

func parseJSON(s string) (json.RawMessage, bool) {
	stripped := jsonc.ToJSON([]byte(s))
	if !json.Valid(stripped) {
		return nil, false
	}
	var raw json.RawMessage
	if err := json.Unmarshal(stripped, &raw); err != nil {
		return nil, false
	}
	return raw, true
}

// extractGroups accepts any array as the group list, top level or under "groups".
// Non-string ids are dropped and a group that is not an array holds no ids.
func extractGroups(parsed json.RawMessage) [][]string {
	var list []json.RawMessage
	if err := json.Unmarshal(parsed, &list); err != nil {
		var wrapped struct {
			Groups json.RawMessage `json:"groups"`
		}
		if err := json.Unmarshal(parsed, &wrapped); err != nil {
			return nil
		}
		if err := json.Unmarshal(wrapped.Groups, &list); err != nil {
			return nil
		}
	}
	if list == nil {
		return nil
	}

	groups := make([][]string, 0, len(list))
	for _, rawGroup := range list {
		var members []json.RawMessage
		_ = json.Unmarshal(rawGroup, &members)

		ids := make([]string, 0, len(members))
		for _, member := range members {
			var id string
			if err := json.Unmarshal(member, &id); err == nil {
				ids = append(ids, id)
			}
		}
		groups = append(groups, ids)
	}
	return groups
}
