// Package prof captures pprof profiles around a microphone run.
//
// A [Profiler] streams a CPU profile while capture is running and writes
// snapshot profiles (heap, allocs, block, mutex) when it stops:
//
//	p, err := prof.Start(prof.Options{CPU: "cpu.prof", Snapshots: map[prof.Profile]string{
//	    prof.ProfileAllocs: "allocs.prof",
//	}})
//	if err != nil {
//	    return err
//	}
//	defer p.Stop()
//
// The allocs profile is the quickest way to confirm that the feed and
// control paths stay allocation-free: neither should appear in it.
//
// Inspect the results with go tool pprof.
package prof
