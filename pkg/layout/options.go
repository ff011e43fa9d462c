package layout

import "github.com/charmbracelet/log"

// Option configures a layout run.
type Option func(*config)

type config struct {
	drawer DrawerFactory
	sep    Separation
	logger *log.Logger
}

func newConfig(opts []Option) config {
	c := config{drawer: NewNative, sep: DefaultSeparation()}
	for _, opt := range opts {
		opt(&c)
	}
	if c.drawer == nil {
		c.drawer = NewNative
	}
	return c
}

// WithDrawer selects the placement backend. The default is [NewNative].
func WithDrawer(f DrawerFactory) Option {
	return func(c *config) { c.drawer = f }
}

// WithSeparation overrides the gaps between and within generations.
// Non-positive values keep the defaults.
func WithSeparation(sep Separation) Option {
	return func(c *config) {
		if sep.RankSep > 0 {
			c.sep.RankSep = sep.RankSep
		}
		if sep.NodeSep > 0 {
			c.sep.NodeSep = sep.NodeSep
		}
	}
}

// WithLogger enables debug logging of each run.
func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.logger = l }
}
