// Package memwatch samples the memory use of the running process so that
// long exports can warn the host before they become a problem.
package memwatch

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// DefaultLimit is the resident set size above which Monitor advises.
const DefaultLimit = 512 << 20

// Usage is one memory sample.
type Usage struct {
	// RSS is the resident set size of this process in bytes.
	RSS uint64
	// SystemUsedPercent is the share of system memory in use.
	SystemUsedPercent float64
}

// Sampler takes memory samples.
type Sampler interface {
	Sample(ctx context.Context) (Usage, error)
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(ctx context.Context) (Usage, error)

func (f SamplerFunc) Sample(ctx context.Context) (Usage, error) { return f(ctx) }

// ProcessSampler samples the current process with gopsutil.
type ProcessSampler struct{}

func (ProcessSampler) Sample(ctx context.Context) (Usage, error) {
	p, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return Usage{}, errors.Wrap(err, "inspect process")
	}
	info, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return Usage{}, errors.Wrap(err, "read process memory")
	}

	u := Usage{RSS: info.RSS}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		u.SystemUsedPercent = vm.UsedPercent
	}
	return u, nil
}

// Monitor compares samples against a limit and advises at most once.
// A Monitor belongs to a single run.
type Monitor struct {
	Limit   uint64
	Sampler Sampler

	advised bool
}

// New returns a Monitor sampling with s. A zero limit means DefaultLimit and
// a nil sampler means the current process.
func New(limit uint64, s Sampler) *Monitor {
	if limit == 0 {
		limit = DefaultLimit
	}
	if s == nil {
		s = ProcessSampler{}
	}
	return &Monitor{Limit: limit, Sampler: s}
}

// Check samples memory. advise is true the first time the sample exceeds
// the limit and false on every later call.
func (m *Monitor) Check(ctx context.Context) (u Usage, advise bool, err error) {
	u, err = m.Sampler.Sample(ctx)
	if err != nil {
		return Usage{}, false, err
	}
	if m.advised || u.RSS <= m.Limit {
		return u, false, nil
	}
	m.advised = true
	return u, true, nil
}
