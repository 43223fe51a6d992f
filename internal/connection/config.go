package connection

import (
	"github.com/zjrosen/remote-engine-mock/internal/log"
)

// Config is the object form of construction.
type Config struct {
	// Address is the target address. Empty leaves the handle closed.
	Address string
	// Transport names a transport class override. The mock never opens a
	// transport, so it is only logged.
	Transport string
}

// NewFromConfig builds a handle from cfg, opening it when an address is set.
func NewFromConfig(cfg Config, opts ...Option) (*Handle, error) {
	if cfg.Transport != "" {
		log.Debug(log.CatConn, "transport class not used in mock", "transport", cfg.Transport)
	}
	return New(cfg.Address, opts...)
}
