// Package codec builds the command lines of external point cloud codecs.
// A codec never runs anything; execution belongs to the runner.
package codec

import (
	"fmt"
	"sort"
	"sync"

	"github.com/signalnine/pccbench/internal/config"
)

// Request is one encode or decode invocation. The rate point is passed
// explicitly so a Codec holds no per-trial state and may be shared.
type Request struct {
	RatePoint config.RatePoint
	Input     string
	Output    string
	Color     bool
}

type Codec interface {
	Name() string
	Config() *config.CodecConfig
	EncodeCommand(req Request) ([]string, error)
	DecodeCommand(req Request) ([]string, error)
}

// Factory constructs a codec over its loaded configuration.
type Factory func(cfg *config.CodecConfig) Codec

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a codec available under name, which is also the base name
// of its configuration file. It panics on duplicate registration.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := factories[name]; dup {
		panic("codec: Register called twice for " + name)
	}
	factories[name] = f
}

func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New loads <cfgDir>/<name>.yml and constructs the named codec.
func New(name, cfgDir string) (Codec, error) {
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (known: %v)", name, Names())
	}
	cfg, err := config.LoadCodec(cfgDir, name)
	if err != nil {
		return nil, err
	}
	return f(cfg), nil
}

type base struct {
	name string
	cfg  *config.CodecConfig
}

func (b base) Name() string                { return b.name }
func (b base) Config() *config.CodecConfig { return b.cfg }
