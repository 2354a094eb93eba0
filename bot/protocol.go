// Package bot implements the transport-agnostic lookup pipeline: inbound
// events in, outbound replies out, with a stateless two-turn disambiguation
// protocol in between.
package bot

import (
	"errors"
	"fmt"

	"github.com/t8nr/plubot/catalog"
)

// ErrSelectionNotFound indicates a selection token matched no record in the
// current catalog snapshot. Expected under catalog churn between the two
// turns; reported as a soft "search again" message, never a fatal error.
var ErrSelectionNotFound = errors.New("selection not found")

// EventKind discriminates inbound events.
type EventKind string

const (
	// EventText carries a free-text or exact-code query.
	EventText EventKind = "text"
	// EventSelection carries a disambiguation token from an earlier
	// options reply.
	EventSelection EventKind = "selection"
)

// Event is one inbound interaction turn from the transport.
type Event struct {
	Kind    EventKind
	Payload string
}

// ReplyType discriminates outbound replies.
type ReplyType string

const (
	ReplyOptions  ReplyType = "options"
	ReplyArtifact ReplyType = "artifact"
	ReplyError    ReplyType = "error"
)

// Option is one selectable candidate in an options reply.
type Option struct {
	Label string
	Token string
}

// Reply is the outbound response for one event.
type Reply struct {
	Type    ReplyType
	Message string   // human-readable text; caption for artifacts
	Options []Option // set when Type == ReplyOptions
	Image   []byte   // set when Type == ReplyArtifact
}

// Present maps candidates to selectable options. The token is the record's
// code: the catalog's intended unique key, sufficient to re-identify the
// record on the next turn from the catalog alone, with no server-held
// session state. Barcode values are deliberately not used as tokens since
// two products may share one (multipack variants).
func Present(candidates []catalog.ProductRecord) []Option {
	opts := make([]Option, 0, len(candidates))
	for _, r := range candidates {
		opts = append(opts, Option{
			Label: fmt.Sprintf("%s — %s", r.Code, r.Name),
			Token: r.Code,
		})
	}
	return opts
}

// ResolveSelection re-identifies the record a token points at in the current
// catalog snapshot. The snapshot may have been reloaded since the options
// were presented; a vanished record degrades to ErrSelectionNotFound.
func ResolveSelection(c *catalog.Catalog, token string) (catalog.ProductRecord, error) {
	if rec, ok := c.ByCode(token); ok {
		return rec, nil
	}
	return catalog.ProductRecord{}, fmt.Errorf("%w: code %q", ErrSelectionNotFound, token)
}
