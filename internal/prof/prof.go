// Package prof wires optional CPU and heap profiling into the CLI.
package prof

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// Session holds the open profile outputs of one command invocation.
// Stop must run exactly once, normally via defer in the command runner.
type Session struct {
	cpuFile *os.File
	memPath string
}

// Start begins CPU profiling and remembers where to write the heap
// profile. Either path may be empty to skip that profile.
func Start(cpuPath, memPath string) (*Session, error) {
	s := &Session{memPath: memPath}
	if cpuPath != "" {
		f, err := os.Create(cpuPath)
		if err != nil {
			return nil, fmt.Errorf("create cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("start cpu profile: %w", err)
		}
		s.cpuFile = f
	}
	return s, nil
}

// Stop flushes the CPU profile and captures the heap snapshot.
func (s *Session) Stop() error {
	if s == nil {
		return nil
	}
	if s.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := s.cpuFile.Close(); err != nil {
			return fmt.Errorf("close cpu profile: %w", err)
		}
		s.cpuFile = nil
	}
	if s.memPath != "" {
		f, err := os.Create(s.memPath)
		if err != nil {
			return fmt.Errorf("create heap profile: %w", err)
		}
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("write heap profile: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close heap profile: %w", err)
		}
	}
	return nil
}
