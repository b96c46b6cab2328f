package optimistic

// Kind is the HTTP-method-derived action kind.
type Kind int

const (
	// KindCreate appends a tentative entity (POST).
	KindCreate Kind = iota

	// KindUpdate replaces an entity in place (PUT/PATCH).
	KindUpdate

	// KindDelete removes an entity (DELETE).
	KindDelete
)

// String returns the kind name used in the pending ledger.
func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Action is the sealed set of optimistic mutations. Exactly three
// variants exist — Create, Update, Delete — so the engine's
// reconciliation switch is exhaustive.
type Action[T any] interface {
	actionKind() Kind
	actionItem() T
	actionPath() string
	actionRollback() func(data []T) []T
	actionHandleError() func(error) error
}

// Create appends Item optimistically and POSTs it to Path (the
// collection endpoint). Item carries a client-generated temporary id;
// on confirmation the tentative entry is replaced by the server entity.
type Create[T any] struct {
	// Path is the collection endpoint, e.g. "/organizations".
	Path string

	// Item is the tentative entity, including its temporary id.
	Item T

	// Transform merges the tentative item with the server's response
	// entity. Nil means the server entity replaces the tentative one
	// outright.
	Transform func(tentative, server T) T

	// Rollback is the caller-supplied inverse. Nil means the engine
	// derives one (remove the tentative entry).
	Rollback func(data []T) []T

	// HandleError normalizes the failure stored in the state's error
	// slot. Nil keeps the engine's normalization.
	HandleError func(error) error
}

func (a Create[T]) actionKind() Kind                    { return KindCreate }
func (a Create[T]) actionItem() T                       { return a.Item }
func (a Create[T]) actionPath() string                  { return a.Path }
func (a Create[T]) actionRollback() func(data []T) []T  { return a.Rollback }
func (a Create[T]) actionHandleError() func(error) error { return a.HandleError }

// Update replaces the entity matching Item's id and PUTs (or PATCHes)
// it to Path (the entity endpoint).
type Update[T any] struct {
	// Path is the entity endpoint, e.g. "/organizations/org-1".
	Path string

	// Item is the updated entity.
	Item T

	// Patch sends PATCH instead of PUT.
	Patch bool

	// Rollback is the caller-supplied inverse. Nil means the engine
	// derives one (restore the replaced entity in place).
	Rollback func(data []T) []T

	// HandleError normalizes the stored failure. Nil keeps the
	// engine's normalization.
	HandleError func(error) error
}

func (a Update[T]) actionKind() Kind                    { return KindUpdate }
func (a Update[T]) actionItem() T                       { return a.Item }
func (a Update[T]) actionPath() string                  { return a.Path }
func (a Update[T]) actionRollback() func(data []T) []T  { return a.Rollback }
func (a Update[T]) actionHandleError() func(error) error { return a.HandleError }

// Delete removes the entity matching Item's id and DELETEs Path (the
// entity endpoint).
type Delete[T any] struct {
	// Path is the entity endpoint, e.g. "/organizations/org-1".
	Path string

	// Item identifies the entity to remove.
	Item T

	// Rollback is the caller-supplied inverse. Nil means the engine
	// derives one (reinsert the removed entity at its old position).
	Rollback func(data []T) []T

	// HandleError normalizes the stored failure. Nil keeps the
	// engine's normalization.
	HandleError func(error) error
}

func (a Delete[T]) actionKind() Kind                    { return KindDelete }
func (a Delete[T]) actionItem() T                       { return a.Item }
func (a Delete[T]) actionPath() string                  { return a.Path }
func (a Delete[T]) actionRollback() func(data []T) []T  { return a.Rollback }
func (a Delete[T]) actionHandleError() func(error) error { return a.HandleError }
