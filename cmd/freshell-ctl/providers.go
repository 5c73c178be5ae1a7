// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/gfbonny/freshell/internal/provider"
	"github.com/gfbonny/freshell/internal/provider/claude"
	"github.com/gfbonny/freshell/internal/provider/codex"
)

// allProviders returns every registered vendor provider.
func allProviders() []provider.Provider {
	return []provider.Provider{claude.New(), codex.New()}
}

// providerByName resolves a --provider flag value (or positional provider
// argument) to a concrete Provider.
func providerByName(name string) (provider.Provider, error) {
	for _, p := range allProviders() {
		if string(p.Identity()) == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown provider %q (want claude or codex)", name)
}
