// Package periph manages a set of named I2C peripherals. The registry owns
// one transport handle per peripheral, serializes access to each handle
// (handles themselves are not safe for concurrent use), and publishes a
// retained status message after every transaction.
package periph

import (
	"strconv"
	"sync"
	"time"

	"github.com/golang/glog"

	"periphcode-go/bus/i2c"
	"periphcode-go/bus/pubsub"
	"periphcode-go/errcode"
	"periphcode-go/types"
)

// Address limits for the two addressing modes.
const (
	maxAddr7  = 0x7F
	maxAddr10 = 0x3FF
)

type entry struct {
	mu  sync.Mutex // serializes use of the handle
	dev i2c.Iface
}

// Registry maps peripheral names to transport handles.
type Registry struct {
	mu   sync.RWMutex
	sb   *pubsub.Bus // status bus; may be nil
	devs map[string]*entry

	// newDev builds the handle for a validated config; swappable in tests.
	newDev func(cfg types.PeriphConfig) i2c.Iface
}

// NewRegistry creates an empty registry. statusBus may be nil when nobody
// consumes status.
func NewRegistry(statusBus *pubsub.Bus) *Registry {
	return &Registry{
		sb:   statusBus,
		devs: make(map[string]*entry),
		newDev: func(cfg types.PeriphConfig) i2c.Iface {
			return i2c.New(i2c.Config{
				Device:  cfg.Device,
				Addr:    cfg.Addr,
				TenBit:  cfg.TenBit,
				Timeout: cfg.Timeout,
			})
		},
	}
}

// Add registers a peripheral. The handle is constructed closed; nothing is
// opened until the first transaction.
func (r *Registry) Add(cfg types.PeriphConfig) error {
	if err := validate(cfg); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.devs[cfg.Name]; dup {
		return errcode.Key("peripheral \"" + cfg.Name + "\" already registered")
	}
	r.devs[cfg.Name] = &entry{dev: r.newDev(cfg)}
	glog.V(1).Infof("registered peripheral %q at %#x on %s", cfg.Name, cfg.Addr, cfg.Device)
	return nil
}

func validate(cfg types.PeriphConfig) error {
	if cfg.Name == "" {
		return errcode.Value("peripheral name must not be empty")
	}
	if cfg.Device == "" {
		return errcode.Value("peripheral \"" + cfg.Name + "\" has no device node")
	}
	limit := uint16(maxAddr7)
	if cfg.TenBit {
		limit = maxAddr10
	}
	if cfg.Addr > limit {
		return errcode.Value("peripheral \"" + cfg.Name + "\" address " +
			strconv.Itoa(int(cfg.Addr)) + " exceeds the addressing mode")
	}
	return nil
}

// Names returns the registered peripheral names in unspecified order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.devs))
	for n := range r.devs {
		names = append(names, n)
	}
	return names
}

// Transact performs one exchange against the named peripheral. Unknown
// names fail with a Key-kind error; transport failures pass through with
// their taxonomy kind intact. The peripheral's retained status is updated
// either way.
func (r *Registry) Transact(name string, tx []byte, rxLen int, closeAfter bool) ([]byte, error) {
	r.mu.RLock()
	e, ok := r.devs[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errcode.Key("unknown peripheral \"" + name + "\"")
	}

	e.mu.Lock()
	rx, err := e.dev.Transfer(tx, rxLen, closeAfter)
	e.mu.Unlock()

	if err != nil {
		glog.Warningf("periph %q: %v", name, err)
	} else if glog.V(2) {
		glog.Infof("periph %q: tx %d rx %d", name, len(tx), len(rx))
	}
	r.publishStatus(name, err)
	return rx, err
}

func (r *Registry) publishStatus(name string, err error) {
	if r.sb == nil {
		return
	}
	st := types.PeriphStatus{Link: types.LinkUp, TS: time.Now().UnixNano()}
	if err != nil {
		st.Link = types.LinkDown
		st.Error = err.Error()
		if e, ok := err.(*errcode.Error); ok {
			st.Code = e.Code()
		}
	}
	r.sb.Publish(pubsub.Message{
		Topic:    StatusTopic(name),
		Payload:  st,
		Retained: true,
	})
}

// StatusTopic returns the retained status topic for a peripheral name.
func StatusTopic(name string) string { return "periph/" + name + "/status" }

// Close releases every handle. The first close failure is reported; the
// remaining handles are still closed.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var first error
	for name, e := range r.devs {
		e.mu.Lock()
		if err := e.dev.Close(); err != nil && first == nil {
			glog.Warningf("periph %q: close: %v", name, err)
			first = err
		}
		e.mu.Unlock()
	}
	r.devs = make(map[string]*entry)
	return first
}
