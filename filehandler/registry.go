package filehandler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kbukum/attachkit/datacontext"
	"github.com/kbukum/attachkit/errors"
	"github.com/kbukum/attachkit/logger"
)

// Registry maps save-mode names to handler constructors. It is immutable
// after NewRegistry returns and safe for concurrent use.
type Registry struct {
	cfg         Config
	names       []string
	ctors       map[string]Constructor
	defaultName string
	log         *logger.Logger
}

// NewRegistry builds a registry from regs in order. Names are lower-cased
// and must be unique.
func NewRegistry(cfg Config, regs ...Registration) (*Registry, error) {
	cfg.ApplyDefaults()
	r := &Registry{
		cfg:   cfg,
		names: make([]string, 0, len(regs)),
		ctors: make(map[string]Constructor, len(regs)),
		log:   logger.Nop(),
	}

	want := strings.ToLower(cfg.SaveFileMode)
	unnamed := 0
	for _, reg := range regs {
		name := reg.Name
		if name == "" {
			unnamed++
			name = fmt.Sprintf("FileHandler%d", unnamed)
		}
		name = strings.ToLower(name)

		if reg.New == nil {
			return nil, errors.InvalidInput("handlers", fmt.Sprintf("file handler %q has no constructor", name))
		}
		if _, dup := r.ctors[name]; dup {
			return nil, errors.Conflict(fmt.Sprintf("file handler %q is registered more than once", name)).
				WithDetail("name", name)
		}

		r.names = append(r.names, name)
		r.ctors[name] = reg.New
		if want != "" && name == want {
			r.defaultName = name
		}
	}

	if r.defaultName == "" && len(r.names) > 0 {
		r.defaultName = r.names[0]
	}
	return r, nil
}

// WithLogger returns a copy of r that logs resolver fallbacks to log.
func (r *Registry) WithLogger(log *logger.Logger) *Registry {
	cp := *r
	if log != nil {
		cp.log = log.WithComponent("filehandler")
	}
	return &cp
}

// Config returns the configuration handed to every constructor.
func (r *Registry) Config() Config { return r.cfg }

// Names returns registered names in registration order.
func (r *Registry) Names() []string { return slices.Clone(r.names) }

// DefaultName returns the name used for an empty save mode, or "" when
// nothing is registered.
func (r *Registry) DefaultName() string { return r.defaultName }

// Has reports whether name (any case) is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.ctors[strings.ToLower(name)]
	return ok
}

// lookup applies the resolution order: an empty mode selects the default,
// anything else must match a registered name case-insensitively.
func (r *Registry) lookup(mode string) (name string, ctor Constructor, ok bool) {
	if mode == "" {
		if r.defaultName == "" {
			return "", nil, false
		}
		return r.defaultName, r.ctors[r.defaultName], true
	}
	name = strings.ToLower(mode)
	ctor, ok = r.ctors[name]
	return name, ctor, ok
}

// Resolve returns a new handler for mode bound to dc. It never returns nil:
// when mode resolves to nothing the built-in DatabaseHandler is used.
func (r *Registry) Resolve(mode string, dc datacontext.DataContext) Handler {
	_, h := r.resolve(mode, dc)
	return h
}

// resolve also reports the save-mode name the handler was found under.
func (r *Registry) resolve(mode string, dc datacontext.DataContext) (string, Handler) {
	if name, ctor, ok := r.lookup(mode); ok {
		if h := ctor(r.cfg, dc); h != nil {
			return name, h
		}
	}
	r.log.Debug("No file handler for save mode, using database handler",
		logger.Fields("requested_mode", mode, logger.FieldSaveMode, DatabaseSaveMode))
	return DatabaseSaveMode, NewDatabaseHandler(r.cfg, dc)
}
