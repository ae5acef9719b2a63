package clustering

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

const groupingPrompt = "here is an array of json objects. look at the text in each item and group them together in groups with similar text content. output a js object with an array of arrays (the groups) of object ids"

// Completer sends a prompt to a language model and returns its text answer
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Result is the outcome of a grouping run. Exactly one of the shapes is set:
// Groups with Repositioned, Parsed when the answer was JSON of another shape,
// or Raw when no JSON could be recovered.
type Result struct {
	Groups       [][]string
	Repositioned bool
	Parsed       json.RawMessage
	Raw          string
}

// Service groups a board's post-its by topic and lays the groups out in rows
type Service struct {
	board     Board
	completer Completer
}

// NewService creates a clustering service
func NewService(board Board, completer Completer) *Service {
	return &Service{board: board, completer: completer}
}

type promptItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Summarize groups the post-its of a live document and repositions them by group
func (s *Service) Summarize(ctx context.Context, documentName string) (*Result, error) {
	items, err := s.board.Items(ctx, documentName)
	if err != nil {
		return nil, fmt.Errorf("load board items: %w", err)
	}

	known := make(map[string]bool, len(items))
	prompt := make([]promptItem, 0, len(items))
	for _, item := range items {
		if item.ID != "" {
			known[item.ID] = true
		}
		if item.Type == ItemTypePostIt {
			prompt = append(prompt, promptItem{ID: item.ID, Text: item.Text})
		}
	}

	log.Debug().
		Str("document", documentName).
		Int("items", len(items)).
		Int("postits", len(prompt)).
		Msg("requesting grouping")

	userPrompt, err := json.Marshal(prompt)
	if err != nil {
		return nil, fmt.Errorf("marshal prompt items: %w", err)
	}

	content, err := s.completer.Complete(ctx, groupingPrompt, string(userPrompt))
	if err != nil {
		return nil, fmt.Errorf("complete grouping: %w", err)
	}

	parsed := ParseCompletion(content)
	if parsed.Parsed == nil {
		log.Warn().Str("document", documentName).Str("content", content).Msg("failed to parse JSON from completion")
		return &Result{Raw: content}, nil
	}
	if parsed.Groups == nil {
		return &Result{Parsed: parsed.Parsed}, nil
	}

	placements := Layout(parsed.Groups, known)
	if err := s.board.ApplyLayout(ctx, documentName, placements); err != nil {
		return nil, fmt.Errorf("apply layout: %w", err)
	}

	log.Info().
		Str("document", documentName).
		Int("groups", len(parsed.Groups)).
		Int("placements", len(placements)).
		Msg("repositioned board items")

	return &Result{Groups: parsed.Groups, Repositioned: true}, nil
}
