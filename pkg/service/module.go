package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/xena-tools/xenamanager-go/pkg/model"
)

// Module is a module slot of a chassis.
type Module struct {
	chassis *Chassis
	node    *model.Node
	index   int

	mu   sync.Mutex
	info map[string]string
}

// Node returns the module node.
func (m *Module) Node() *model.Node {
	return m.node
}

// Name returns "<chassis>/<module>".
func (m *Module) Name() string {
	return m.node.Name()
}

// Index returns the module index.
func (m *Module) Index() int {
	return m.index
}

// Info returns the m_info attributes read by the last Inventory.
func (m *Module) Info() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.info))
	for k, v := range m.info {
		out[k] = v
	}
	return out
}

// Inventory reads the module information and creates one inventoried port
// per port index. CFP modules report their port count through the first
// field of m_cfpconfig, all others through m_portcount.
func (m *Module) Inventory(ctx context.Context) error {
	info, err := m.node.GetAttributes(ctx, "m_info")
	if err != nil {
		return fmt.Errorf("module %s inventory: %w", m.Name(), err)
	}
	m.mu.Lock()
	m.info = info
	m.mu.Unlock()

	count, err := m.portCount(ctx, info["cfptype"])
	if err != nil {
		return fmt.Errorf("module %s inventory: %w", m.Name(), err)
	}

	for i := 0; i < count; i++ {
		p, err := m.chassis.port(model.PortAddress(m.index, i))
		if err != nil {
			return err
		}
		if err := p.Inventory(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m *Module) portCount(ctx context.Context, cfpType string) (int, error) {
	var raw string
	if strings.Contains(cfpType, "NOTCFP") {
		v, err := m.node.GetAttribute(ctx, "m_portcount")
		if err != nil {
			return 0, err
		}
		raw = v
	} else {
		v, err := m.node.GetAttribute(ctx, "m_cfpconfig")
		if err != nil {
			return 0, err
		}
		fields := strings.Fields(v)
		if len(fields) == 0 {
			return 0, fmt.Errorf("%w: empty m_cfpconfig", model.ErrProtocol)
		}
		raw = fields[0]
	}

	count, err := strconv.Atoi(raw)
	if err != nil || count < 0 {
		return 0, fmt.Errorf("%w: port count %q", model.ErrProtocol, raw)
	}
	return count, nil
}

// Ports returns the module ports keyed by port index.
func (m *Module) Ports() map[int]*Port {
	out := make(map[int]*Port)
	for _, o := range m.node.ObjectsByType(model.KindPort) {
		p := o.(*Port)
		out[p.index] = p
	}
	return out
}
