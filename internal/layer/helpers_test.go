package layer

import (
	"sync"
)

// journal records hook and sweep calls across layers, in order.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, s)
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.entries))
	copy(out, j.entries)
	return out
}

func (j *journal) reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = nil
}

// probe is a configurable test layer that reports its calls to a journal.
type probe struct {
	name string
	j    *journal

	renderTransparent bool
	updateTransparent bool
	inputTransparent  bool

	renderSignal Signal
	updateSignal Signal

	lastPush PushEvent
}

func newProbe(name string, j *journal, renderTransparent, updateTransparent bool) *probe {
	return &probe{name: name, j: j, renderTransparent: renderTransparent, updateTransparent: updateTransparent}
}

func (p *probe) Render(delta float64) Signal {
	p.j.add(p.name + ".render")
	return p.renderSignal
}

func (p *probe) Update(delta float64) Signal {
	p.j.add(p.name + ".update")
	return p.updateSignal
}

func (p *probe) HandleInput(ev any) Signal {
	p.j.add(p.name + ".input")
	return Continue
}

func (p *probe) RenderTransparent() bool { return p.renderTransparent }
func (p *probe) UpdateTransparent() bool { return p.updateTransparent }
func (p *probe) InputTransparent() bool  { return p.inputTransparent }

func (p *probe) OnPush(ev PushEvent) {
	p.lastPush = ev
	p.j.add(p.name + ".push")
}
func (p *probe) OnPop()     { p.j.add(p.name + ".pop") }
func (p *probe) OnFocus()   { p.j.add(p.name + ".focus") }
func (p *probe) OnUnfocus() { p.j.add(p.name + ".unfocus") }

// visited filters journal entries to those ending in suffix, e.g. ".render".
func visited(entries []string, suffix string) []string {
	var out []string
	for _, e := range entries {
		if len(e) > len(suffix) && e[len(e)-len(suffix):] == suffix {
			out = append(out, e[:len(e)-len(suffix)])
		}
	}
	return out
}
