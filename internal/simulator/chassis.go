package simulator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xena-tools/xenamanager-go/pkg/wire"
)

// DefaultPassword is the logon password accepted when Config.Password is empty.
const DefaultPassword = "xena"

// ModuleConfig describes one module slot. A slot with zero ports is empty.
type ModuleConfig struct {
	// Ports is the number of ports on the module.
	Ports int

	// CFPType is reported by m_info ("NOTCFP" when empty).
	CFPType string

	// Model is reported by m_info.
	Model string
}

// Config configures a simulated chassis.
type Config struct {
	// Name is reported by c_info.
	Name string

	// Password is the logon password (default: DefaultPassword).
	Password string

	// Modules lists the module slots in index order.
	Modules []ModuleConfig

	// TrafficDuration is how long traffic runs before a port stops on its
	// own. Zero keeps traffic on until stopped.
	TrafficDuration time.Duration

	// PacketsPerRun is added to the tx/rx counters of each port whenever
	// traffic starts (default: 1000).
	PacketsPerRun int64
}

// PortState is a snapshot of one simulated port.
type PortState struct {
	Owner     string
	TrafficOn bool
	Resets    int
	TxPackets int64
	RxPackets int64
	Streams   []int
	Params    map[string]string
}

type port struct {
	owner     string
	trafficOn bool
	stopAt    time.Time
	resets    int
	txPackets int64
	rxPackets int64
	streams   []int
	params    map[string]string
}

// session is the per-connection logon state.
type session struct {
	loggedOn bool
	owner    string
	held     []string
}

// Chassis is a simulated chassis.
type Chassis struct {
	config Config

	mu       sync.Mutex
	ports    map[string]*port
	commands []string
	silent   bool

	server
}

// New creates a simulated chassis.
func New(config Config) *Chassis {
	if config.Password == "" {
		config.Password = DefaultPassword
	}
	if config.Name == "" {
		config.Name = "simulated"
	}
	if config.PacketsPerRun == 0 {
		config.PacketsPerRun = 1000
	}

	c := &Chassis{
		config: config,
		ports:  make(map[string]*port),
	}
	for m, mod := range config.Modules {
		for p := 0; p < mod.Ports; p++ {
			c.ports[fmt.Sprintf("%d/%d", m, p)] = &port{params: make(map[string]string)}
		}
	}
	c.server.handler = c.handle
	return c
}

// Commands returns every line received so far, in order.
func (c *Chassis) Commands() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.commands...)
}

// CommandsWith returns the received lines whose mnemonic equals mnemonic.
func (c *Chassis) CommandsWith(mnemonic string) []string {
	var out []string
	for _, line := range c.Commands() {
		cmd, err := wire.ParseCommand(line)
		if err == nil && cmd.Mnemonic == mnemonic {
			out = append(out, line)
		}
	}
	return out
}

// ResetCommands clears the command record.
func (c *Chassis) ResetCommands() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = nil
}

// SetSilent makes the chassis hold its replies. Lines received while silent
// are answered in order, ahead of the first line received afterwards.
func (c *Chassis) SetSilent(silent bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.silent = silent
}

// SetOwner forces the reservation owner of a port ("" releases it).
func (c *Chassis) SetOwner(address, owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.ports[address]; ok {
		p.owner = owner
	}
}

// SetTrafficDuration changes how long future traffic runs last.
func (c *Chassis) SetTrafficDuration(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.TrafficDuration = d
}

// Port returns a snapshot of the port at address ("<m>/<p>").
func (c *Chassis) Port(address string) (PortState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.ports[address]
	if !ok {
		return PortState{}, false
	}
	params := make(map[string]string, len(p.params))
	for k, v := range p.params {
		params[k] = v
	}
	return PortState{
		Owner:     p.owner,
		TrafficOn: p.trafficActive(time.Now()),
		Resets:    p.resets,
		TxPackets: p.txPackets,
		RxPackets: p.rxPackets,
		Streams:   append([]int(nil), p.streams...),
		Params:    params,
	}, true
}

func (p *port) trafficActive(now time.Time) bool {
	if p.trafficOn && !p.stopAt.IsZero() && !now.Before(p.stopAt) {
		p.trafficOn = false
	}
	return p.trafficOn
}

// handle processes one line and returns the reply lines. ok is false when
// the chassis is silent.
func (c *Chassis) handle(sess *session, line string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.commands = append(c.commands, line)
	sess.held = append(sess.held, line)
	if c.silent {
		return nil, false
	}

	var replies []string
	for _, l := range sess.held {
		replies = append(replies, c.reply(sess, l)...)
	}
	sess.held = sess.held[:0]
	return replies, true
}

func (c *Chassis) reply(sess *session, line string) []string {
	cmd, err := wire.ParseCommand(line)
	if err != nil {
		return []string{wire.StatusSyntax.Token()}
	}

	switch cmd.Mnemonic {
	case wire.SyncCommand:
		return []string{wire.StatusSync.Token()}
	case "c_logon":
		if len(cmd.Args) == 1 && wire.Unquote(cmd.Args[0]) == c.config.Password {
			sess.loggedOn = true
			return ok()
		}
		return []string{wire.StatusNotValid.Token()}
	}

	if !sess.loggedOn {
		return []string{wire.StatusNotLoggedOn.Token()}
	}

	switch {
	case cmd.Address == "":
		return c.handleChassis(sess, cmd)
	case strings.Contains(cmd.Address, "/"):
		return c.handlePort(sess, cmd)
	default:
		return c.handleModule(cmd)
	}
}

func (c *Chassis) handleChassis(sess *session, cmd wire.Command) []string {
	switch cmd.Mnemonic {
	case "c_owner":
		if len(cmd.Args) != 1 {
			return []string{wire.StatusSyntax.Token()}
		}
		sess.owner = wire.Unquote(cmd.Args[0])
		return ok()
	case "c_info":
		return []string{
			"C_NAME " + wire.Quote(c.config.Name),
			`C_MODEL "XenaSim"`,
			"C_PORTCOUNTS " + c.portCounts(),
			"C_SERIALNO 1234567",
		}
	case "c_portcounts":
		return []string{"C_PORTCOUNTS " + c.portCounts()}
	case "c_traffic":
		return c.chassisTraffic(sess, cmd.Args)
	}
	return []string{wire.StatusNotValid.Token()}
}

func (c *Chassis) portCounts() string {
	counts := make([]string, len(c.config.Modules))
	for i, m := range c.config.Modules {
		counts[i] = strconv.Itoa(m.Ports)
	}
	return strings.Join(counts, " ")
}

func (c *Chassis) chassisTraffic(sess *session, args []string) []string {
	if len(args) < 3 || len(args)%2 != 1 {
		return []string{wire.StatusSyntax.Token()}
	}
	on := strings.EqualFold(args[0], "on")
	if !on && !strings.EqualFold(args[0], "off") {
		return []string{wire.StatusBadValue.Token()}
	}

	var targets []*port
	for i := 1; i < len(args); i += 2 {
		p, exists := c.ports[args[i]+"/"+args[i+1]]
		if !exists {
			return []string{wire.StatusBadPort.Token()}
		}
		if p.owner != sess.owner {
			return []string{wire.StatusNotReserved.Token()}
		}
		targets = append(targets, p)
	}

	now := time.Now()
	for _, p := range targets {
		if on {
			p.trafficOn = true
			p.stopAt = time.Time{}
			if c.config.TrafficDuration > 0 {
				p.stopAt = now.Add(c.config.TrafficDuration)
			}
			p.txPackets += c.config.PacketsPerRun
			p.rxPackets += c.config.PacketsPerRun
		} else {
			p.trafficOn = false
		}
	}
	return ok()
}

func (c *Chassis) handleModule(cmd wire.Command) []string {
	m, err := strconv.Atoi(cmd.Address)
	if err != nil || m >= len(c.config.Modules) || c.config.Modules[m].Ports == 0 {
		return []string{wire.StatusBadModule.Token()}
	}
	mod := c.config.Modules[m]
	cfpType := mod.CFPType
	if cfpType == "" {
		cfpType = "NOTCFP"
	}
	prefix := cmd.Address + " "

	switch cmd.Mnemonic {
	case "m_info":
		return []string{
			prefix + "M_MODEL " + wire.Quote(mod.Model),
			prefix + "M_CFPTYPE " + cfpType,
			prefix + "M_STATUS OK",
		}
	case "m_portcount":
		return []string{prefix + "M_PORTCOUNT " + strconv.Itoa(mod.Ports)}
	case "m_cfptype":
		return []string{prefix + "M_CFPTYPE " + cfpType}
	case "m_cfpconfig":
		return []string{fmt.Sprintf("%sM_CFPCONFIG %d %d", prefix, mod.Ports, 100/mod.Ports)}
	}
	return []string{wire.StatusNotValid.Token()}
}

func (c *Chassis) handlePort(sess *session, cmd wire.Command) []string {
	p, exists := c.ports[cmd.Address]
	if !exists {
		return []string{wire.StatusBadPort.Token()}
	}
	prefix := cmd.Address + " "
	now := time.Now()

	if cmd.IsQuery() {
		switch cmd.Mnemonic {
		case "p_reservation":
			state := "RELEASED"
			switch {
			case p.owner == "":
			case p.owner == sess.owner:
				state = "RESERVED_BY_YOU"
			default:
				state = "RESERVED_BY_OTHER"
			}
			return []string{prefix + "P_RESERVATION " + state}
		case "p_reservedby":
			return []string{prefix + "P_RESERVEDBY " + wire.Quote(p.owner)}
		case "p_traffic":
			state := "OFF"
			if p.trafficActive(now) {
				state = "ON"
			}
			return []string{prefix + "P_TRAFFIC " + state}
		case "p_info":
			return []string{
				prefix + "P_SPEED 10000",
				prefix + `P_INTERFACE "SFP+ 10G"`,
				prefix + "P_RECEIVESYNC IN_SYNC",
			}
		case "p_receivesync":
			return []string{prefix + "P_RECEIVESYNC IN_SYNC"}
		case "ps_indices":
			idx := make([]string, len(p.streams))
			for i, s := range p.streams {
				idx[i] = strconv.Itoa(s)
			}
			return []string{strings.TrimSpace(prefix + "PS_INDICES " + strings.Join(idx, " "))}
		case "pt_total", "pr_total", "pt_notpld", "pr_notpld":
			n := p.txPackets
			if strings.HasPrefix(cmd.Mnemonic, "pr_") {
				n = p.rxPackets
			}
			return []string{fmt.Sprintf("%s%s 0 0 %d %d", prefix, strings.ToUpper(cmd.Mnemonic), n*64, n)}
		case "pt_extra":
			return []string{prefix + "PT_EXTRA 0 0 0 0 0 0 0 0 0 0"}
		case "pr_extra":
			return []string{prefix + "PR_EXTRA 0 0 0 0 0 0 0 0"}
		case "pr_pfcstats":
			return []string{prefix + "PR_PFCSTATS 0 0 0 0 0 0 0 0 0"}
		}
		if v, ok := p.params[cmd.Mnemonic]; ok {
			return []string{prefix + strings.ToUpper(cmd.Mnemonic) + " " + v}
		}
		return []string{wire.StatusNotReadable.Token()}
	}

	if cmd.Mnemonic == "p_reservation" {
		return c.portReservation(sess, p, cmd.Args)
	}

	if p.owner != sess.owner || p.owner == "" {
		return []string{wire.StatusNotReserved.Token()}
	}

	switch cmd.Mnemonic {
	case "p_reset":
		p.resets++
		p.trafficOn = false
		p.streams = nil
		p.params = make(map[string]string)
	case "pt_clear":
		p.txPackets = 0
	case "pr_clear":
		p.rxPackets = 0
	case "ps_create":
		if len(cmd.Args) != 1 {
			return []string{wire.StatusSyntax.Token()}
		}
		idx, err := strconv.Atoi(strings.Trim(cmd.Args[0], "[]"))
		if err != nil {
			return []string{wire.StatusBadIndex.Token()}
		}
		p.streams = append(p.streams, idx)
		sort.Ints(p.streams)
	default:
		p.params[cmd.Mnemonic] = strings.Join(cmd.Args, " ")
	}
	return ok()
}

func (c *Chassis) portReservation(sess *session, p *port, args []string) []string {
	if len(args) != 1 {
		return []string{wire.StatusSyntax.Token()}
	}
	switch strings.ToLower(args[0]) {
	case "reserve":
		if p.owner != "" && p.owner != sess.owner {
			return []string{wire.StatusReservedByOther.Token()}
		}
		p.owner = sess.owner
	case "release":
		if p.owner != sess.owner || p.owner == "" {
			return []string{wire.StatusNotReserved.Token()}
		}
		p.owner = ""
	case "relinquish":
		p.owner = ""
	default:
		return []string{wire.StatusBadValue.Token()}
	}
	return ok()
}

func ok() []string {
	return []string{wire.StatusOK.Token()}
}
