package bench

import (
	"strings"

	"github.com/benz9527/rbzip/lib/infra"
)

// KeyOrder is the order in which keys are fed to the tree.
type KeyOrder uint8

const (
	Descending KeyOrder = iota
	Ascending
	Shuffled
	FromFile
	_orderMax
)

func (o KeyOrder) String() string {
	switch o {
	case Descending:
		return "descending"
	case Ascending:
		return "ascending"
	case Shuffled:
		return "shuffled"
	case FromFile:
		return "file"
	default:
	}
	return "unknown"
}

func KeyOrderOf(name string) (KeyOrder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "desc", "descending":
		return Descending, nil
	case "asc", "ascending":
		return Ascending, nil
	case "shuffle", "shuffled", "random":
		return Shuffled, nil
	case "file":
		return FromFile, nil
	default:
	}
	return _orderMax, infra.NewErrorStack("unknown key order " + name)
}

// BuildMode selects the write path used to build the tree.
type BuildMode uint8

const (
	// Persistent inserts through Tree.Insert, every insert allocates its path.
	Persistent BuildMode = iota
	// Builder inserts through a Builder and rewrites owned nodes in place.
	Builder
	_modeMax
)

func (m BuildMode) String() string {
	switch m {
	case Persistent:
		return "persistent"
	case Builder:
		return "builder"
	default:
	}
	return "unknown"
}

func BuildModeOf(name string) (BuildMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "builder", "fbip":
		return Builder, nil
	case "persistent", "pure":
		return Persistent, nil
	default:
	}
	return _modeMax, infra.NewErrorStack("unknown build mode " + name)
}

const (
	DefaultSize = 4_200_000
	// checkEvery is how many inserts run between two context checks.
	checkEvery = 1 << 12
)

type Options struct {
	size     int
	order    KeyOrder
	mode     BuildMode
	keysDir  string
	keysFile string
	workers  int
	verify   bool
	name     string
}

type Option func(opts *Options) error

func defaultOptions() *Options {
	return &Options{
		size:    DefaultSize,
		order:   Descending,
		mode:    Builder,
		workers: 1,
		name:    "default",
	}
}

func (opts *Options) Size() int { return opts.size }
func (opts *Options) Order() KeyOrder { return opts.order }
func (opts *Options) Mode() BuildMode { return opts.mode }
func (opts *Options) Workers() int { return opts.workers }
func (opts *Options) VerifyEnabled() bool { return opts.verify }

func (opts *Options) validate() error {
	if opts.order == FromFile {
		if len(opts.keysFile) == 0 {
			return infra.NewErrorStack("key order file requires a keys file")
		}
	} else if opts.size <= 0 {
		return infra.NewErrorStack("bench size must be positive")
	}
	return nil
}

func WithName(name string) Option {
	return func(opts *Options) error {
		if name = strings.TrimSpace(name); len(name) == 0 {
			return infra.NewErrorStack("empty bench name")
		}
		opts.name = name
		return nil
	}
}

func WithSize(n int) Option {
	return func(opts *Options) error {
		if n <= 0 {
			return infra.NewErrorStack("bench size must be positive")
		}
		opts.size = n
		return nil
	}
}

func WithKeyOrder(order KeyOrder) Option {
	return func(opts *Options) error {
		if order >= _orderMax {
			return infra.NewErrorStack("unknown key order")
		}
		opts.order = order
		return nil
	}
}

// WithKeysFile reads the keys from name, resolved beneath dir.
// It switches the key order to FromFile.
func WithKeysFile(dir, name string) Option {
	return func(opts *Options) error {
		if len(strings.TrimSpace(name)) == 0 {
			return infra.NewErrorStack("empty keys file name")
		}
		if len(strings.TrimSpace(dir)) == 0 {
			dir = "."
		}
		opts.keysDir, opts.keysFile = dir, name
		opts.order = FromFile
		return nil
	}
}

func WithBuildMode(mode BuildMode) Option {
	return func(opts *Options) error {
		if mode >= _modeMax {
			return infra.NewErrorStack("unknown build mode")
		}
		opts.mode = mode
		return nil
	}
}

// WithParallelFold recounts the snapshot over workers key ranges.
// One worker disables the parallel pass.
func WithParallelFold(workers int) Option {
	return func(opts *Options) error {
		if workers <= 0 {
			return infra.NewErrorStack("fold workers must be positive")
		}
		opts.workers = workers
		return nil
	}
}

func WithVerify() Option {
	return func(opts *Options) error {
		opts.verify = true
		return nil
	}
}
