package console

import (
	"sync"

	"github.com/geoannot/gcptag/internal/catalog"
	"github.com/geoannot/gcptag/internal/registry"
)

// gcpList keeps the last rendered GCP list for the gcps command.
type gcpList struct {
	mu    sync.RWMutex
	items []registry.Item
}

func (v *gcpList) Render(items []registry.Item) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = append([]registry.Item(nil), items...)
}

func (v *gcpList) Items() []registry.Item {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]registry.Item(nil), v.items...)
}

// imageList keeps the last rendered image options.
type imageList struct {
	mu      sync.RWMutex
	options []catalog.Option
}

func (v *imageList) Render(options []catalog.Option) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.options = append([]catalog.Option(nil), options...)
}

func (v *imageList) Options() []catalog.Option {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]catalog.Option(nil), v.options...)
}

// imagePane records which image is on display.
type imagePane struct {
	mu   sync.RWMutex
	name string
	src  string
}

func (p *imagePane) ShowImage(name, src string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.name, p.src = name, src
}

func (p *imagePane) ClearImage() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.name, p.src = "", ""
}

func (p *imagePane) Current() (name, src string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name, p.src
}

// argsForm is the create form filled from command arguments.
type argsForm struct {
	mu             sync.Mutex
	name, lat, lon string
}

func newArgsForm(args []string) *argsForm {
	f := &argsForm{}
	if len(args) > 0 {
		f.name = args[0]
	}
	if len(args) > 1 {
		f.lat = args[1]
	}
	if len(args) > 2 {
		f.lon = args[2]
	}
	return f
}

func (f *argsForm) Values() (name, lat, lon string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.name, f.lat, f.lon
}

func (f *argsForm) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.name, f.lat, f.lon = "", "", ""
}
