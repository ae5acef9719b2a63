package clustering

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mcdev12/corkboard/go/clients"
	"github.com/mcdev12/corkboard/go/clients/openrouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBoard struct {
	items    []Item
	itemsErr error
	applied  []Placement
	applyErr error
	applies  int
}

func (b *fakeBoard) Items(ctx context.Context, documentName string) ([]Item, error) {
	return b.items, b.itemsErr
}

func (b *fakeBoard) ApplyLayout(ctx context.Context, documentName string, placements []Placement) error {
	b.applies++
	b.applied = placements
	return b.applyErr
}

type fakeCompleter struct {
	content string
	err     error
	prompt  string
}

func (c *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	c.prompt = user
	return c.content, c.err
}

func boardItems() []Item {
	return []Item{
		{ID: "p1", Type: ItemTypePostIt, Text: "pizza"},
		{ID: "p2", Type: ItemTypePostIt, Text: "flights"},
		{ID: "p3", Type: ItemTypePostIt, Text: "pasta"},
		{ID: "s1", Type: "shape"},
	}
}

func summarize(t *testing.T, board Board, completer Completer, query string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(NewService(board, completer))
	rec := httptest.NewRecorder()
	h.HandleSummarize(rec, httptest.NewRequest(http.MethodPost, "/summarize"+query, nil))
	return rec
}

func TestSummarize_RepositionsGroups(t *testing.T) {
	board := &fakeBoard{items: boardItems()}
	completer := &fakeCompleter{content: "```json\n{\"groups\": [[\"p1\", \"p3\"], [\"p2\", \"s1\"]]}\n```"}

	rec := summarize(t, board, completer, "?document=retro")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"groups":[["p1","p3"],["p2","s1"]],"repositioned":true}`, rec.Body.String())
	assert.JSONEq(t, `[{"id":"p1","text":"pizza"},{"id":"p2","text":"flights"},{"id":"p3","text":"pasta"}]`, completer.prompt,
		"only post-its are sent for grouping")

	require.Len(t, board.applied, 4)
	assert.Equal(t, "p3", board.applied[1].ID)
	assert.InDelta(t, 1.2, board.applied[1].X, 1e-9)
	assert.Equal(t, "s1", board.applied[3].ID, "any object on the board can be moved")
}

func TestSummarize_RepositionsWithNonStringIDs(t *testing.T) {
	board := &fakeBoard{items: boardItems()}
	rec := summarize(t, board, &fakeCompleter{content: `[[1, 2], ["p2", 7]]`}, "?document=retro")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"groups":[[],["p2"]],"repositioned":true}`, rec.Body.String())
	assert.Equal(t, 1, board.applies)
	require.Len(t, board.applied, 1)
	assert.Equal(t, "p2", board.applied[0].ID)
	assert.Zero(t, board.applied[0].X)
	assert.InDelta(t, 2.2, board.applied[0].Y, 1e-9, "empty group still takes a row")
}

func TestSummarize_RawWhenUnparseable(t *testing.T) {
	board := &fakeBoard{items: boardItems()}
	rec := summarize(t, board, &fakeCompleter{content: "I cannot group these."}, "?document=retro")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"raw":"I cannot group these."}`, rec.Body.String())
	assert.Zero(t, board.applies)
}

func TestSummarize_EchoesUnexpectedShape(t *testing.T) {
	board := &fakeBoard{items: boardItems()}
	rec := summarize(t, board, &fakeCompleter{content: `{"topics": {"food": ["p1"]}}`}, "?document=retro")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"topics": {"food": ["p1"]}}`, rec.Body.String())
	assert.Zero(t, board.applies)
}

func TestSummarize_Errors(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		board      *fakeBoard
		completer  *fakeCompleter
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing document",
			query:      "",
			board:      &fakeBoard{},
			completer:  &fakeCompleter{},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"document query parameter is required"}`,
		},
		{
			name:       "board not loaded",
			query:      "?document=gone",
			board:      &fakeBoard{itemsErr: ErrBoardNotLoaded},
			completer:  &fakeCompleter{},
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"document not found or not loaded"}`,
		},
		{
			name:       "upstream status",
			query:      "?document=retro",
			board:      &fakeBoard{items: boardItems()},
			completer:  &fakeCompleter{err: &clients.StatusError{StatusCode: 429, Body: "slow down"}},
			wantStatus: http.StatusBadGateway,
			wantBody:   `{"error":"OpenRouter request failed","status":429}`,
		},
		{
			name:       "empty completion",
			query:      "?document=retro",
			board:      &fakeBoard{items: boardItems()},
			completer:  &fakeCompleter{err: openrouter.ErrEmptyCompletion},
			wantStatus: http.StatusBadGateway,
			wantBody:   `{"error":"No result found in LLM response"}`,
		},
		{
			name:       "layout publish failure",
			query:      "?document=retro",
			board:      &fakeBoard{items: boardItems(), applyErr: errors.New("stream unavailable")},
			completer:  &fakeCompleter{content: `[["p1"]]`},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"failed to summarize document"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := summarize(t, tt.board, tt.completer, tt.query)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestLayoutMessage_Wire(t *testing.T) {
	data, err := json.Marshal(LayoutMessage{DocumentName: "retro", Placements: []Placement{{ID: "p1", X: 1.2, Y: 1}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"document_name":"retro","placements":[{"id":"p1","x":1.2,"y":1,"z":0}]}`, string(data))
}
