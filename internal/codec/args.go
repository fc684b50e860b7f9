package codec

import (
	"fmt"

	"github.com/signalnine/pccbench/internal/config"
)

// argv accumulates a command line and remembers the first lookup error, so
// each codec can describe its command as a flat list of appends.
type argv struct {
	cfg  *config.CodecConfig
	rp   config.RatePoint
	args []string
	err  error
}

func newArgv(cfg *config.CodecConfig, rp config.RatePoint) *argv {
	return &argv{cfg: cfg, rp: rp}
}

func (a *argv) exe(role, path string) *argv {
	if path == "" && a.err == nil {
		a.err = fmt.Errorf("codec config: %s executable is not set", role)
	}
	a.args = append(a.args, path)
	return a
}

func (a *argv) add(args ...string) *argv {
	a.args = append(a.args, args...)
	return a
}

// flag appends "name value" with value taken from the rate point.
func (a *argv) flag(name, key string) *argv {
	v, err := a.rp.Option(key)
	a.keep(err)
	a.args = append(a.args, name, v)
	return a
}

// opt appends prefix+value with value taken from the rate point.
func (a *argv) opt(prefix, key string) *argv {
	v, err := a.rp.Option(key)
	a.keep(err)
	a.args = append(a.args, prefix+v)
	return a
}

// setting appends prefix+value with value taken from the codec config.
func (a *argv) setting(prefix, key string) *argv {
	v, err := a.cfg.Setting(key)
	a.keep(err)
	a.args = append(a.args, prefix+v)
	return a
}

func (a *argv) settingOr(key, fallback string) string {
	if v, err := a.cfg.Setting(key); err == nil && v != "" {
		return v
	}
	return fallback
}

func (a *argv) keep(err error) {
	if a.err == nil && err != nil {
		a.err = err
	}
}

func (a *argv) build() ([]string, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.args, nil
}
