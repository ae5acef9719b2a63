package hooks

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

var (
	ErrMissingUserID       = errors.New("userId is required")
	ErrMissingDocumentName = errors.New("document name is required")
)

// DocumentStore persists opaque document state
type DocumentStore interface {
	Fetch(ctx context.Context, name string) ([]byte, bool, error)
	Store(ctx context.Context, name string, state []byte) error
}

// PresenceTracker records which users are connected to which document
type PresenceTracker interface {
	SetOnline(ctx context.Context, userID, documentName string) error
	SetOffline(ctx context.Context, userID, documentName string) error
}

// Hooks implements the lifecycle callbacks of the external CRDT host
type Hooks struct {
	documents DocumentStore
	presence  PresenceTracker
}

// NewHooks creates the CRDT host hooks
func NewHooks(documents DocumentStore, presence PresenceTracker) *Hooks {
	return &Hooks{documents: documents, presence: presence}
}

// OnConnect marks the user online. Connections without a user id are rejected.
func (h *Hooks) OnConnect(ctx context.Context, userID, documentName string) error {
	if documentName == "" {
		return ErrMissingDocumentName
	}
	if userID == "" {
		return ErrMissingUserID
	}
	if err := h.presence.SetOnline(ctx, userID, documentName); err != nil {
		return fmt.Errorf("on connect: %w", err)
	}

	log.Info().Str("user_id", userID).Str("document", documentName).Msg("user connected")
	return nil
}

// OnDisconnect marks the user offline. Anonymous disconnects are ignored.
func (h *Hooks) OnDisconnect(ctx context.Context, userID, documentName string) error {
	if userID == "" {
		return nil
	}
	if err := h.presence.SetOffline(ctx, userID, documentName); err != nil {
		return fmt.Errorf("on disconnect: %w", err)
	}

	log.Info().Str("user_id", userID).Str("document", documentName).Msg("user disconnected")
	return nil
}

// OnLoadDocument returns the stored state the host should apply, if any
func (h *Hooks) OnLoadDocument(ctx context.Context, documentName string) ([]byte, bool, error) {
	if documentName == "" {
		return nil, false, ErrMissingDocumentName
	}

	state, found, err := h.documents.Fetch(ctx, documentName)
	if err != nil {
		return nil, false, fmt.Errorf("on load document: %w", err)
	}

	if found {
		log.Info().Str("document", documentName).Int("bytes", len(state)).Msg("restored document from database")
	} else {
		log.Info().Str("document", documentName).Msg("new document, no stored state found")
	}
	return state, found, nil
}

// OnStoreDocument persists the full encoded document state
func (h *Hooks) OnStoreDocument(ctx context.Context, documentName string, state []byte) error {
	if documentName == "" {
		return ErrMissingDocumentName
	}
	if err := h.documents.Store(ctx, documentName, state); err != nil {
		return fmt.Errorf("on store document: %w", err)
	}

	log.Info().Str("document", documentName).Int("bytes", len(state)).Msg("stored document")
	return nil
}
