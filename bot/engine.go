package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/t8nr/plubot/catalog"
	"github.com/t8nr/plubot/metrics"
	"github.com/t8nr/plubot/render"
	"github.com/t8nr/plubot/resolver"
)

// CatalogLoader yields the current catalog snapshot.
type CatalogLoader interface {
	Load(ctx context.Context) (*catalog.Catalog, error)
}

// ArtifactRenderer yields the cached artifact for a record.
type ArtifactRenderer interface {
	Render(rec catalog.ProductRecord) (render.Artifact, error)
}

// Engine runs the lookup pipeline for one event at a time. It holds no
// per-event state, so the transport may feed it concurrently.
type Engine struct {
	loader CatalogLoader
	cache  ArtifactRenderer
	log    *zap.SugaredLogger
}

// NewEngine wires a pipeline over the given catalog loader and render cache.
func NewEngine(loader CatalogLoader, cache ArtifactRenderer, log *zap.SugaredLogger) *Engine {
	return &Engine{loader: loader, cache: cache, log: log}
}

// Handle processes one inbound event and returns the reply to send.
// Pipeline failures come back as error replies; the returned error is
// reserved for context cancellation.
func (e *Engine) Handle(ctx context.Context, ev Event) (Reply, error) {
	log := e.log.With("event_id", uuid.New().String(), "kind", ev.Kind)

	cat, err := e.loader.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Reply{}, ctx.Err()
		}
		log.Errorw("catalog load failed", "error", err)
		return Reply{Type: ReplyError, Message: "Product catalog is currently unavailable, please try again later."}, nil
	}

	switch ev.Kind {
	case EventText:
		return e.handleQuery(log, cat, ev.Payload), nil
	case EventSelection:
		return e.handleSelection(log, cat, ev.Payload), nil
	default:
		log.Warnw("unknown event kind")
		return Reply{Type: ReplyError, Message: "Unsupported request."}, nil
	}
}

func (e *Engine) handleQuery(log *zap.SugaredLogger, cat *catalog.Catalog, query string) Reply {
	mode := string(resolver.ModeFor(query))
	candidates := resolver.Resolve(cat, query)
	metrics.ObserveCandidates(len(candidates))

	switch len(candidates) {
	case 0:
		// A miss is a normal empty result, not a failure.
		metrics.IncQuery(mode, "miss")
		log.Infow("no match", "mode", mode)
		return Reply{Type: ReplyError, Message: fmt.Sprintf("Nothing found for %q.", query)}
	case 1:
		metrics.IncQuery(mode, "hit")
		return e.artifactReply(log, candidates[0])
	default:
		metrics.IncQuery(mode, "multi")
		log.Infow("ambiguous query", "mode", mode, "candidates", len(candidates))
		return Reply{
			Type:    ReplyOptions,
			Message: fmt.Sprintf("Found %d products for %q. Pick one:", len(candidates), query),
			Options: Present(candidates),
		}
	}
}

func (e *Engine) handleSelection(log *zap.SugaredLogger, cat *catalog.Catalog, token string) Reply {
	rec, err := ResolveSelection(cat, token)
	if err != nil {
		metrics.IncSelection("not_found")
		log.Infow("selection expired", "token", token)
		return Reply{Type: ReplyError, Message: "That product is no longer in the catalog, please search again."}
	}
	metrics.IncSelection("hit")
	return e.artifactReply(log, rec)
}

func (e *Engine) artifactReply(log *zap.SugaredLogger, rec catalog.ProductRecord) Reply {
	art, err := e.cache.Render(rec)
	if err != nil {
		if errors.Is(err, render.ErrInvalidInput) {
			log.Warnw("unencodable barcode value", "code", rec.Code, "value", rec.BarcodeValue)
			return Reply{Type: ReplyError, Message: fmt.Sprintf("Barcode value %q of %s cannot be encoded.", rec.BarcodeValue, rec.Name)}
		}
		log.Errorw("render failed", "code", rec.Code, "error", err)
		return Reply{Type: ReplyError, Message: "Could not render the barcode, please try again later."}
	}
	return Reply{
		Type:    ReplyArtifact,
		Message: fmt.Sprintf("%s\nPLU: %s\nBarcode: %s", rec.Name, rec.Code, rec.BarcodeValue),
		Image:   art.PNG,
	}
}
