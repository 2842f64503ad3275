package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xena-tools/xenamanager-go/pkg/model"
)

// StatsCaptions names the counters returned by each port statistics query,
// in reply order.
var StatsCaptions = map[string][]string{
	"pr_pfcstats": {"total", "CoS 0", "CoS 1", "CoS 2", "CoS 3", "CoS 4", "CoS 5", "CoS 6", "CoS 7"},
	"pr_total":    {"bps", "pps", "bytes", "packets"},
	"pr_notpld":   {"bps", "pps", "bytes", "packets"},
	"pr_extra": {"fcserrors", "pauseframes", "arprequests", "arpreplies", "pingrequests",
		"pingreplies", "gapcount", "gapduration"},
	"pt_total": {"bps", "pps", "bytes", "packets"},
	"pt_extra": {"arprequests", "arpreplies", "pingrequests", "pingreplies", "injectedfcs",
		"injectedseq", "injectedmis", "injectedint", "injectedtid", "training"},
	"pt_notpld": {"bps", "pps", "bytes", "packets"},
}

// StatsGroups returns the statistics query names in sorted order.
func StatsGroups() []string {
	groups := make([]string, 0, len(StatsCaptions))
	for g := range StatsCaptions {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// ReadPortStats queries one statistics group and returns its counters
// keyed by caption.
func (p *Port) ReadPortStats(ctx context.Context, group string) (map[string]int64, error) {
	captions, ok := StatsCaptions[group]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStat, group)
	}

	v, err := p.node.GetAttribute(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("port %s %s: %w", p.Name(), group, err)
	}
	fields := strings.Fields(v)
	if len(fields) < len(captions) {
		return nil, fmt.Errorf("port %s %s: %w: %d values, want %d",
			p.Name(), group, model.ErrProtocol, len(fields), len(captions))
	}

	stats := make(map[string]int64, len(captions))
	for i, caption := range captions {
		n, err := strconv.ParseInt(fields[i], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("port %s %s: %w: value %q", p.Name(), group, model.ErrProtocol, fields[i])
		}
		stats[caption] = n
	}
	return stats, nil
}

// ReadAllPortStats queries every statistics group.
func (p *Port) ReadAllPortStats(ctx context.Context) (map[string]map[string]int64, error) {
	all := make(map[string]map[string]int64, len(StatsCaptions))
	for _, group := range StatsGroups() {
		stats, err := p.ReadPortStats(ctx, group)
		if err != nil {
			return nil, err
		}
		all[group] = stats
	}
	return all, nil
}
