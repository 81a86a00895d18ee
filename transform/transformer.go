// Package transform replaces fluid() calls in CSS declaration values with
// clamp() expressions.
package transform

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"fluidcss/config"
	"fluidcss/css"
	"fluidcss/fluid"
)

// Stats describes what happened to a stylesheet.
type Stats struct {
	Declarations int // declarations seen
	Occurrences  int // fluid function calls found
	Rewritten    int // calls replaced with computed value
	Declined     int // calls left as they were
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Declarations += other.Declarations
	s.Occurrences += other.Occurrences
	s.Rewritten += other.Rewritten
	s.Declined += other.Declined
}

// result of rewriting a single declaration value, cached as a whole.
type result struct {
	text     string
	changed  bool
	found    int
	declined int
}

// Transformer rewrites declaration values. It keeps no per call state and
// may be shared between goroutines.
type Transformer struct {
	log    *zap.Logger
	parser *css.Parser

	names   map[string]struct{}
	quick   *regexp.Regexp
	widths  map[string]*css.TokenNode // nil value - configured text is not a single token
	opts    fluid.Options
	cacheSz int
	cache   *lru.Cache[string, result]
}

// Option changes Transformer defaults taken from configuration.
type Option func(*Transformer)

// WithCacheSize overwrites configured cache size, 0 disables caching.
func WithCacheSize(size int) Option {
	return func(t *Transformer) {
		t.cacheSz = size
	}
}

// WithSolverOptions overwrites configured solver options.
func WithSolverOptions(opts fluid.Options) Option {
	return func(t *Transformer) {
		t.opts = opts
	}
}

// New creates Transformer for the configuration.
func New(cfg *config.FluidConfig, log *zap.Logger, opts ...Option) *Transformer {
	if log == nil {
		log = zap.NewNop()
	}

	t := &Transformer{
		log:     log.Named("transform"),
		parser:  css.NewParser(log),
		names:   make(map[string]struct{}, len(cfg.FunctionNames)),
		widths:  make(map[string]*css.TokenNode, len(cfg.ViewportWidths)),
		opts:    cfg.Options(),
		cacheSz: cfg.CacheSize,
	}
	for _, o := range opts {
		o(t)
	}

	quoted := make([]string, 0, len(cfg.FunctionNames))
	for _, name := range cfg.FunctionNames {
		t.names[strings.ToLower(name)] = struct{}{}
		quoted = append(quoted, regexp.QuoteMeta(name))
	}
	t.quick = regexp.MustCompile(`(?i)(?:^|[^\w-])(?:` + strings.Join(quoted, "|") + `)\(`)

	for key, text := range cfg.ViewportWidths {
		var node *css.TokenNode
		if v, ok := css.ParseComponentValue(css.Tokenize(text)); ok {
			node, _ = v.(*css.TokenNode)
		}
		if node == nil {
			t.log.Warn("Viewport width is not a single value, fluid() calls using it will be left unchanged",
				zap.String("key", key), zap.String("value", text))
		}
		t.widths[key] = node
	}

	if t.cacheSz > 0 {
		// only fails for non-positive sizes
		t.cache, _ = lru.New[string, result](t.cacheSz)
	}
	return t
}

// Value rewrites single declaration value. It returns original value and
// false if nothing was changed.
func (t *Transformer) Value(value string) (string, bool) {
	r := t.value(value)
	return r.text, r.changed
}

func (t *Transformer) value(value string) result {
	if !t.quick.MatchString(value) {
		return result{text: value}
	}
	if t.cache != nil {
		if r, ok := t.cache.Get(value); ok {
			return r
		}
	}

	r := result{text: value}
	groups := css.ReplaceComponentValues(css.ParseCommaSeparatedList(css.Tokenize(value)),
		func(v css.ComponentValue) (css.ComponentValue, bool) {
			fn, ok := v.(*css.FunctionNode)
			if !ok || !t.isFluid(fn.GetName()) {
				return nil, false
			}
			r.found++
			out, reason := t.resolve(fn)
			if out == nil {
				r.declined++
				if ce := t.log.Check(zap.DebugLevel, "Function left unchanged"); ce != nil {
					ce.Write(zap.String("call", css.Stringify(fn)), zap.String("reason", reason), zap.String("tree", css.Dump(fn)))
				}
				return nil, false
			}
			return out, true
		})

	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		parts = append(parts, css.Stringify(g...))
	}
	if text := strings.Join(parts, ","); text != value {
		r.text, r.changed = text, true
	}

	if t.cache != nil {
		t.cache.Add(value, r)
	}
	return r
}

func (t *Transformer) isFluid(name string) bool {
	_, ok := t.names[strings.ToLower(name)]
	return ok
}

// resolve turns arguments of a single fluid function into solver input.
// When call cannot be replaced nil is returned with the reason.
func (t *Transformer) resolve(fn *css.FunctionNode) (css.ComponentValue, string) {
	var tokens []css.Token
	for _, v := range fn.Value {
		switch n := v.(type) {
		case *css.FunctionNode, *css.BlockNode:
			return nil, "arguments contain function or block"
		case *css.TokenNode:
			if !n.IsTrivia() {
				tokens = append(tokens, n.Token)
			}
		}
	}

	groups := css.ParseCommaSeparatedList(tokens)
	if len(groups) != 2 {
		return nil, "expected two comma separated arguments"
	}

	var points [2]struct{ width, size css.ComponentValue }
	for i, g := range groups {
		switch len(g) {
		case 2:
			points[i].width = g[0]
			if tn, ok := g[0].(*css.TokenNode); ok {
				if node, ok := t.widths[string(tn.Token.Data)]; ok {
					if node == nil {
						return nil, "viewport width " + string(tn.Token.Data) + " is not a single value"
					}
					points[i].width = node
				}
			}
		case 1:
			key := config.DefaultFromKey
			if i > 0 {
				key = config.DefaultToKey
			}
			node, ok := t.widths[key]
			if !ok {
				return nil, "viewport width omitted and " + key + " is not configured"
			}
			if node == nil {
				return nil, key + " is not a single value"
			}
			points[i].width = node
		default:
			return nil, "argument must be [viewport-width] size"
		}
		points[i].size = g[len(g)-1]
	}

	out, ok := fluid.Solve(points[0].width, points[0].size, points[1].width, points[1].size, t.opts)
	if !ok {
		return nil, "unable to interpolate between given values"
	}
	return out, ""
}

// Stylesheet rewrites all declaration values in the stylesheet. Everything
// else is copied byte for byte.
func (t *Transformer) Stylesheet(data []byte, source ...string) ([]byte, Stats) {
	var stats Stats

	sheet := t.parser.Parse(data, source...)
	for _, w := range sheet.Warnings {
		t.log.Warn("Stylesheet problem", zap.Strings("source", source), zap.String("warning", w))
	}

	for _, decl := range sheet.Declarations() {
		stats.Declarations++
		r := t.value(decl.Value)
		stats.Occurrences += r.found
		stats.Declined += r.declined
		stats.Rewritten += r.found - r.declined
		if r.changed {
			t.log.Debug("Declaration rewritten",
				zap.String("property", decl.Property), zap.Int("line", decl.Line),
				zap.String("from", decl.Value), zap.String("to", r.text))
			decl.Value = r.text
		}
	}
	return sheet.Bytes(), stats
}
