package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"sort"
	"sync"
)

// Profiling errors.
var (
	// ErrCPUProfileActive indicates another CPU profile is being recorded.
	ErrCPUProfileActive = errors.New("cpu profile already active")

	// ErrInvalidProfile indicates an unknown snapshot profile.
	ErrInvalidProfile = errors.New("invalid profile")
)

// Profile names a pprof snapshot profile.
type Profile string

// Snapshot profiles.
const (
	ProfileHeap      Profile = "heap"
	ProfileAllocs    Profile = "allocs"
	ProfileGoroutine Profile = "goroutine"
	ProfileBlock     Profile = "block"
	ProfileMutex     Profile = "mutex"
)

// ParseProfile returns the snapshot profile with the given name.
func ParseProfile(name string) (Profile, error) {
	switch p := Profile(name); p {
	case ProfileHeap, ProfileAllocs, ProfileGoroutine, ProfileBlock, ProfileMutex:
		return p, nil
	default:
		return "", fmt.Errorf("%q: %w", name, ErrInvalidProfile)
	}
}

// Options selects the profiles a [Profiler] records.
type Options struct {
	// CPU is the CPU profile path. Empty disables CPU profiling.
	CPU string

	// Snapshots maps snapshot profiles to the paths written by Stop.
	Snapshots map[Profile]string
}

// Profiler records the profiles selected by its options. At most one
// profiler with a CPU profile runs at a time.
type Profiler struct {
	opts Options
	cpu  *os.File

	once sync.Once
	err  error
}

var cpuMutex sync.Mutex

// Start validates opts, enables block and mutex sampling when those
// snapshots are requested, and starts the CPU profile.
func Start(opts Options) (*Profiler, error) {
	for p := range opts.Snapshots {
		if _, err := ParseProfile(string(p)); err != nil {
			return nil, err
		}
	}
	if _, ok := opts.Snapshots[ProfileBlock]; ok {
		runtime.SetBlockProfileRate(1)
	}
	if _, ok := opts.Snapshots[ProfileMutex]; ok {
		runtime.SetMutexProfileFraction(1)
	}

	p := &Profiler{opts: opts}
	if opts.CPU == "" {
		return p, nil
	}

	if !cpuMutex.TryLock() {
		return nil, ErrCPUProfileActive
	}
	f, err := os.Create(opts.CPU)
	if err != nil {
		cpuMutex.Unlock()
		return nil, fmt.Errorf("create cpu profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		cpuMutex.Unlock()
		return nil, fmt.Errorf("start cpu profile: %w", err)
	}
	p.cpu = f
	return p, nil
}

// Stop ends the CPU profile and writes the snapshots. Only the first call
// has any effect; later calls return its result.
func (p *Profiler) Stop() error {
	p.once.Do(func() {
		var errs []error
		if p.cpu != nil {
			pprof.StopCPUProfile()
			errs = append(errs, p.cpu.Close())
			cpuMutex.Unlock()
		}

		// Deterministic write order
		names := make([]string, 0, len(p.opts.Snapshots))
		for profile := range p.opts.Snapshots {
			names = append(names, string(profile))
		}
		sort.Strings(names)
		for _, name := range names {
			errs = append(errs, writeSnapshot(Profile(name), p.opts.Snapshots[Profile(name)]))
		}
		p.err = errors.Join(errs...)
	})
	return p.err
}

func writeSnapshot(profile Profile, path string) error {
	prof := pprof.Lookup(string(profile))
	if prof == nil {
		return fmt.Errorf("%s: %w", profile, ErrInvalidProfile)
	}
	if profile == ProfileHeap || profile == ProfileAllocs {
		runtime.GC()
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s profile: %w", profile, err)
	}
	if err := prof.WriteTo(f, 0); err != nil {
		f.Close()
		return fmt.Errorf("write %s profile: %w", profile, err)
	}
	return f.Close()
}
