package clustering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// ErrBoardNotLoaded is returned when the CRDT host has no live copy of the document
var ErrBoardNotLoaded = errors.New("document not found or not loaded")

// ItemTypePostIt marks the board items that are sent for grouping
const ItemTypePostIt = "postit"

// Item is one object on a live board
type Item struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

// Board reads and mutates the live shared document held by the CRDT host
type Board interface {
	Items(ctx context.Context, documentName string) ([]Item, error)
	ApplyLayout(ctx context.Context, documentName string, placements []Placement) error
}

// BoardConfig holds the NATS subjects used to reach the CRDT host
type BoardConfig struct {
	SubjectPrefix  string
	StreamName     string
	RequestTimeout time.Duration
	MaxAge         time.Duration
}

// DefaultBoardConfig returns default board subjects
func DefaultBoardConfig() BoardConfig {
	return BoardConfig{
		SubjectPrefix:  "collab.board",
		StreamName:     "COLLAB_BOARD",
		RequestTimeout: 5 * time.Second,
		MaxAge:         time.Hour,
	}
}

type itemsRequest struct {
	DocumentName string `json:"document_name"`
}

type itemsReply struct {
	Items []Item `json:"items"`
	Error string `json:"error,omitempty"`
}

// LayoutMessage is published for the CRDT host to apply in one transaction
type LayoutMessage struct {
	DocumentName string      `json:"document_name"`
	Placements   []Placement `json:"placements"`
}

// NATSBoard reaches the CRDT host over NATS: items by request/reply, layouts through JetStream
type NATSBoard struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config BoardConfig
}

// NewNATSBoard creates the board bridge and ensures the layout stream exists
func NewNATSBoard(ctx context.Context, nc *nats.Conn, config BoardConfig) (*NATSBoard, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        config.StreamName,
		Description: "Board layout mutations for the CRDT host",
		Subjects:    []string{config.SubjectPrefix + ".layout"},
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      config.MaxAge,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure stream %s: %w", config.StreamName, err)
	}

	return &NATSBoard{nc: nc, js: js, config: config}, nil
}

// Items asks the CRDT host for every object on the board
func (b *NATSBoard) Items(ctx context.Context, documentName string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.RequestTimeout)
	defer cancel()

	req, err := json.Marshal(itemsRequest{DocumentName: documentName})
	if err != nil {
		return nil, fmt.Errorf("marshal items request: %w", err)
	}

	msg, err := b.nc.RequestWithContext(ctx, b.subject("items"), req)
	if errors.Is(err, nats.ErrNoResponders) {
		return nil, ErrBoardNotLoaded
	}
	if err != nil {
		return nil, fmt.Errorf("request board items: %w", err)
	}

	var reply itemsReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return nil, fmt.Errorf("decode board items: %w", err)
	}
	if reply.Error == "not_loaded" {
		return nil, ErrBoardNotLoaded
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("board items: %s", reply.Error)
	}
	return reply.Items, nil
}

// ApplyLayout publishes the placements for the CRDT host to write into the document
func (b *NATSBoard) ApplyLayout(ctx context.Context, documentName string, placements []Placement) error {
	data, err := json.Marshal(LayoutMessage{DocumentName: documentName, Placements: placements})
	if err != nil {
		return fmt.Errorf("marshal layout: %w", err)
	}

	ack, err := b.js.Publish(ctx, b.subject("layout"), data)
	if err != nil {
		return fmt.Errorf("publish layout: %w", err)
	}

	log.Debug().
		Str("document", documentName).
		Uint64("sequence", ack.Sequence).
		Int("placements", len(placements)).
		Msg("layout published")
	return nil
}

func (b *NATSBoard) subject(action string) string {
	return b.config.SubjectPrefix + "." + action
}
