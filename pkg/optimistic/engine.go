package optimistic

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"
)

// Requester issues the real network request for an action. *api.Client
// satisfies it, so the engine shares the transport chain (auth
// coordinator, middleware) with the rest of the data layer.
type Requester interface {
	Do(ctx context.Context, method, path string, body, out any) (http.Header, error)
}

// Engine executes optimistic actions against a Store.
type Engine[T any] struct {
	store   *Store[T]
	client  Requester
	logger  *slog.Logger
	newOpID func() string
}

// EngineOption configures an Engine.
type EngineOption[T any] func(*Engine[T])

// WithLogger sets the logger. Default: slog.Default().
func WithLogger[T any](logger *slog.Logger) EngineOption[T] {
	return func(e *Engine[T]) {
		e.logger = logger
	}
}

// WithOpIDs overrides operation id generation. Tests use it for
// deterministic ledgers.
func WithOpIDs[T any](gen func() string) EngineOption[T] {
	return func(e *Engine[T]) {
		e.newOpID = gen
	}
}

// New creates an engine over store, issuing requests through client.
func New[T any](store *Store[T], client Requester, opts ...EngineOption[T]) *Engine[T] {
	e := &Engine[T]{
		store:   store,
		client:  client,
		logger:  slog.Default(),
		newOpID: newOpID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the engine's state store.
func (e *Engine[T]) Store() *Store[T] {
	return e.store
}

// Execute applies action optimistically, issues the request, and either
// reconciles local state with the server's response or rolls the
// mutation back. It returns the resolved entity (for Delete, the removed
// item). Concurrent calls are tracked independently; a failure in one
// does not disturb another.
func (e *Engine[T]) Execute(ctx context.Context, action Action[T]) (T, error) {
	var zero T

	op := PendingOperation{
		ID:        e.newOpID(),
		Type:      action.actionKind().String(),
		Timestamp: time.Now(),
	}
	item := action.actionItem()
	tempID := e.store.id(item)

	derived := e.store.apply(action.actionKind(), item, op)
	inverse := action.actionRollback()
	if inverse == nil {
		inverse = derived
	}

	result, err := e.request(ctx, action)
	if err != nil {
		if handle := action.actionHandleError(); handle != nil {
			err = handle(err)
		}
		e.store.fail(op.ID, inverse, err)
		e.logger.Debug("optimistic: action rolled back",
			"op", op.ID, "type", op.Type, "error", err)
		return zero, err
	}

	switch a := action.(type) {
	case Create[T]:
		server := result
		if a.Transform != nil {
			server = a.Transform(item, result)
		}
		e.store.reconcile(op.ID, tempID, server)
		return server, nil
	default:
		// Update and Delete already reflect final state locally.
		e.store.settle(op.ID)
		return result, nil
	}
}

// request issues the HTTP call for the action's variant.
func (e *Engine[T]) request(ctx context.Context, action Action[T]) (T, error) {
	item := action.actionItem()
	path := action.actionPath()

	switch a := action.(type) {
	case Create[T]:
		var out T
		if _, err := e.client.Do(ctx, http.MethodPost, path, a.Item, &out); err != nil {
			return out, err
		}
		return out, nil

	case Update[T]:
		method := http.MethodPut
		if a.Patch {
			method = http.MethodPatch
		}
		out := a.Item
		if _, err := e.client.Do(ctx, method, path, a.Item, &out); err != nil {
			return out, err
		}
		return out, nil

	case Delete[T]:
		if _, err := e.client.Do(ctx, http.MethodDelete, path, nil, nil); err != nil {
			return item, err
		}
		return item, nil

	default:
		// The Action interface is sealed; this is unreachable.
		return item, nil
	}
}

// newOpID generates a unique operation id.
func newOpID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("optimistic: rand.Read: " + err.Error())
	}
	return "op-" + hex.EncodeToString(b[:])
}
