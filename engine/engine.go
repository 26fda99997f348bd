// Package engine is the facade over the scripting runtime: it loads
// GS1 and GS2 sources, binds them to owners, routes events and wires
// optional persistence.
package engine

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"github.com/tliron/commonlog"

	"github.com/torchlight/gserver/builtins"
	"github.com/torchlight/gserver/compiler"
	"github.com/torchlight/gserver/dispatch"
	"github.com/torchlight/gserver/gs1"
	"github.com/torchlight/gserver/pkg/bytecode"
	"github.com/torchlight/gserver/script"
	"github.com/torchlight/gserver/storage"
)

// Language selects the script front end.
type Language int

const (
	LangGS1 Language = iota
	LangGS2
)

func (l Language) String() string {
	if l == LangGS1 {
		return "gs1"
	}
	return "gs2"
}

// ParseLanguage resolves "gs1"/"gs2", case-insensitively.
func ParseLanguage(name string) (Language, bool) {
	switch strings.ToLower(name) {
	case "gs1":
		return LangGS1, true
	case "gs2":
		return LangGS2, true
	}
	return 0, false
}

// Handle identifies one loaded script binding.
type Handle struct {
	ID       uuid.UUID
	Owner    string
	Language Language
}

// Options configures an engine.
type Options struct {
	Limits      bytecode.Limits
	MaxParallel int
	CacheSize   int // compiled-script cache entries; <=0 means 256
}

// Engine owns the dispatcher, the builtin registry and the compile
// cache. Safe for concurrent use.
type Engine struct {
	log        commonlog.Logger
	registry   *builtins.Registry
	host       *builtins.Host
	dispatcher *dispatch.Dispatcher
	timers     *dispatch.TimerService
	interp     *gs1.Interpreter
	limits     bytecode.Limits
	cache      *lru.Cache

	mu           sync.Mutex
	store        *storage.Store
	lastTimeout  map[string]time.Duration
	loadedOwners map[string]bool
}

// New builds an engine against a world.
func New(world builtins.World, opts Options) *Engine {
	cacheSize := opts.CacheSize
	if cacheSize <= 0 {
		cacheSize = 256
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		panic(err)
	}

	registry := builtins.NewRegistry(world)
	dispatcher := dispatch.NewDispatcher(opts.MaxParallel)
	e := &Engine{
		log:          commonlog.GetLogger("gserver.engine"),
		registry:     registry,
		host:         builtins.NewHost(registry, world),
		dispatcher:   dispatcher,
		interp:       gs1.NewInterpreter(registry, opts.Limits),
		limits:       opts.Limits,
		cache:        cache,
		lastTimeout:  make(map[string]time.Duration),
		loadedOwners: make(map[string]bool),
	}
	e.timers = dispatch.NewTimerService(dispatcher)
	e.timers.Start()
	return e
}

// Registry exposes the builtin table for tooling.
func (e *Engine) Registry() *builtins.Registry {
	return e.registry
}

// AttachStore wires globals persistence: stored globals overlay each
// owner's context at first bind, and globals are saved after every
// fired event.
func (e *Engine) AttachStore(store *storage.Store) {
	e.mu.Lock()
	e.store = store
	e.mu.Unlock()
	e.dispatcher.SetSaver(store)
}

// Close stops the timer service.
func (e *Engine) Close() {
	e.timers.Stop()
}

type compiled struct {
	gs1Script *gs1.Script
	gs2Prog   *bytecode.Program
}

// compileSource parses or compiles one source, through the cache.
// The cache key is the language plus the source digest, so identical
// scripts on many owners compile once.
func (e *Engine) compileSource(source string, lang Language) (*compiled, error) {
	key := fmt.Sprintf("%s:%x", lang, sha256.Sum256([]byte(source)))
	if cached, ok := e.cache.Get(key); ok {
		return cached.(*compiled), nil
	}

	var c compiled
	switch lang {
	case LangGS1:
		sc, err := gs1.Parse(source)
		if err != nil {
			return nil, err
		}
		c.gs1Script = sc
	case LangGS2:
		ast, err := compiler.Parse(source)
		if err != nil {
			return nil, err
		}
		prog, err := bytecode.Compile(ast, e.registry)
		if err != nil {
			return nil, err
		}
		c.gs2Prog = prog
	default:
		return nil, fmt.Errorf("unknown language %d", lang)
	}

	e.cache.Add(key, &c)
	return &c, nil
}

// CheckScript parses (and for GS2 compiles) a source without binding
// it. Used by the CLI checker and the LSP diagnostics path.
func (e *Engine) CheckScript(source string, lang Language) error {
	_, err := e.compileSource(source, lang)
	return err
}

// LoadScript parses or compiles source and binds it to the owner.
// GS2 init bodies run at bind time; stored globals are overlaid after
// init on the owner's first script, so persisted state wins over
// initializers.
func (e *Engine) LoadScript(ownerID, source string, lang Language) (Handle, error) {
	c, err := e.compileSource(source, lang)
	if err != nil {
		return Handle{}, err
	}

	var bound dispatch.Script
	if c.gs1Script != nil {
		bound = &gs1Bound{script: c.gs1Script, interp: e.interp}
	} else {
		bound = &gs2Bound{vm: bytecode.NewVM(c.gs2Prog, e.host, e.limits), prog: c.gs2Prog}
	}

	if err := e.dispatcher.Bind(ownerID, bound); err != nil {
		return Handle{}, err
	}
	if err := e.overlayStored(ownerID); err != nil {
		return Handle{}, err
	}

	e.log.Infof("loaded %s script for %s", lang, ownerID)
	return Handle{ID: uuid.New(), Owner: ownerID, Language: lang}, nil
}

// overlayStored loads persisted globals into a freshly bound owner.
func (e *Engine) overlayStored(ownerID string) error {
	e.mu.Lock()
	store := e.store
	first := !e.loadedOwners[ownerID]
	e.loadedOwners[ownerID] = true
	e.mu.Unlock()

	if store == nil || !first {
		return nil
	}
	stored, err := store.LoadGlobals(ownerID)
	if err != nil {
		return fmt.Errorf("loading globals for %s: %w", ownerID, err)
	}
	ctx, ok := e.dispatcher.Context(ownerID)
	if !ok {
		return nil
	}
	ctx.LoadGlobals(stored)
	return nil
}

// SetOwnerLevel attaches a level handle to the owner's context.
func (e *Engine) SetOwnerLevel(ownerID string, level script.ObjectRef) error {
	ctx, ok := e.dispatcher.Context(ownerID)
	if !ok {
		return script.NewRuntimeError("unknown owner %q", ownerID)
	}
	ctx.SetLevel(&level)
	return nil
}

// TriggerEvent fires one event at an owner. After the scripts run, the
// "timeout" global is inspected to honor timer requests.
func (e *Engine) TriggerEvent(ownerID string, event script.Event, args script.EventArgs) ([]*dispatch.Invocation, error) {
	invs, err := e.dispatcher.Fire(ownerID, event, args)
	if err != nil {
		return invs, err
	}
	e.applyTimeoutRequest(ownerID)
	return invs, nil
}

// Broadcast fires one event at every owner.
func (e *Engine) Broadcast(event script.Event, args script.EventArgs) {
	e.dispatcher.Broadcast(event, args)
}

// applyTimeoutRequest reads the "timeout" global: a positive number of
// seconds schedules recurring Timeout events, zero cancels them.
// Rescheduling happens only when the requested interval changed.
func (e *Engine) applyTimeoutRequest(ownerID string) {
	ctx, ok := e.dispatcher.Context(ownerID)
	if !ok {
		return
	}
	v, ok := ctx.GetGlobal("timeout")
	if !ok {
		return
	}
	seconds, err := v.ToNumber()
	if err != nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	want := time.Duration(seconds * float64(time.Second))
	if want <= 0 {
		if _, had := e.lastTimeout[ownerID]; had {
			e.timers.Cancel(ownerID)
			delete(e.lastTimeout, ownerID)
		}
		return
	}
	if e.lastTimeout[ownerID] == want {
		return
	}
	e.lastTimeout[ownerID] = want
	e.timers.Schedule(ownerID, want)
}

// ScheduleTimeout starts recurring Timeout events for an owner.
func (e *Engine) ScheduleTimeout(ownerID string, every time.Duration) {
	e.mu.Lock()
	e.lastTimeout[ownerID] = every
	e.mu.Unlock()
	e.timers.Schedule(ownerID, every)
}

// DestroyOwner tears the owner down. Stored globals are kept so a
// reloaded owner resumes its state.
func (e *Engine) DestroyOwner(ownerID string) {
	e.timers.Cancel(ownerID)
	e.dispatcher.Destroy(ownerID)
	e.mu.Lock()
	delete(e.lastTimeout, ownerID)
	delete(e.loadedOwners, ownerID)
	e.mu.Unlock()
}

// Context exposes an owner's script context.
func (e *Engine) Context(ownerID string) (*script.Context, bool) {
	return e.dispatcher.Context(ownerID)
}
