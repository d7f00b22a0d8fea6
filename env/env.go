//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//

// Package env implements global environment for the QuickPool system.
package env

import (
	"crypto/rand"
	"fmt"
	"io"
	"runtime"

	"go.uber.org/zap"
)

// DefaultSeed is the shared PRG seed of local simulations.
const DefaultSeed uint64 = 200

// Config defines the global system configuration for the QuickPool
// system. It configures system operation for all protocol
// modules. Config must not be modified after being passed to any
// module.  It is safe for concurrent use by multiple modules as they
// do not modify it.
type Config struct {
	// Rand is the source of entropy for comparison keys and random
	// inputs.
	Rand io.Reader

	// Seed is the seed of the parties' shared random generators in
	// local simulations. Distributed parties agree on pairwise keys
	// instead.
	Seed []byte

	// Logger is the structured logger.
	Logger *zap.Logger

	// Verbose enables the protocol debug trace.
	Verbose bool

	// Threads limits the per-party worker pool size.
	Threads int
}

// GetRandom returns the source of entropy for comparison keys and
// other cryptography operations.
func (config *Config) GetRandom() io.Reader {
	if config.Rand != nil {
		return config.Rand
	}
	return rand.Reader
}

// GetLogger returns the configured logger or a no-op logger.
func (config *Config) GetLogger() *zap.Logger {
	if config.Logger != nil {
		return config.Logger
	}
	return zap.NewNop()
}

// GetThreads returns the worker pool size.
func (config *Config) GetThreads() int {
	if config.Threads > 0 {
		return config.Threads
	}
	return runtime.NumCPU()
}

// GetSeed returns the shared generator seed.
func (config *Config) GetSeed() []byte {
	if len(config.Seed) > 0 {
		return config.Seed
	}
	return []byte(fmt.Sprintf("quickpool-%d", DefaultSeed))
}

// Debugf prints a debug trace message if the configuration is
// verbose.
func (config *Config) Debugf(format string, a ...interface{}) {
	if !config.Verbose {
		return
	}
	fmt.Printf(format, a...)
}
