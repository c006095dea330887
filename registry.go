// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package ldmask

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownVariant = errors.New("unknown variant key")

type registryMode int

const (
	registryUnset registryMode = iota
	registryBatch
	registryIncremental
)

// variantRegistry assigns a dense surrogate code to each unique
// variant key. Codes and keys are a bijection for the lifetime of one
// pipeline run; they are not stable across runs.
//
// Two assignment modes are supported. Batch mode (Observe keys while
// streaming, then Fit) assigns codes over the sorted unique key set,
// so two registries fed the same key set in any order produce the
// same codes -- required by consumers that need the whole key space
// before encoding. Incremental mode (Register) assigns the next free
// code at first sight, for callers that only need set membership.
// Mixing modes in one registry is a bug.
type variantRegistry struct {
	mode  registryMode
	seen  map[string]bool
	codes map[string]int
	keys  []string // keys[code] == key
}

func (r *variantRegistry) setMode(m registryMode) {
	if r.mode == registryUnset {
		r.mode = m
	} else if r.mode != m {
		panic("bug: variantRegistry used in both batch and incremental mode")
	}
}

// Observe records a key for later code assignment by Fit.
func (r *variantRegistry) Observe(key string) {
	r.setMode(registryBatch)
	if r.seen == nil {
		r.seen = map[string]bool{}
	}
	r.seen[key] = true
}

// Fit assigns codes 0..n-1 over the sorted set of observed keys.
func (r *variantRegistry) Fit() {
	r.setMode(registryBatch)
	if r.codes != nil {
		panic("bug: (*variantRegistry)Fit() called twice")
	}
	r.keys = make([]string, 0, len(r.seen))
	for key := range r.seen {
		r.keys = append(r.keys, key)
	}
	sort.Strings(r.keys)
	r.codes = make(map[string]int, len(r.keys))
	for code, key := range r.keys {
		r.codes[key] = code
	}
}

// Register assigns the next free code to key, or returns the code
// already assigned to it.
func (r *variantRegistry) Register(key string) int {
	r.setMode(registryIncremental)
	if r.codes == nil {
		r.codes = map[string]int{}
	}
	if code, ok := r.codes[key]; ok {
		return code
	}
	code := len(r.keys)
	r.codes[key] = code
	r.keys = append(r.keys, key)
	return code
}

// Code returns the surrogate code for key. Looking up a key that was
// never registered is a contract violation and fails loudly.
func (r *variantRegistry) Code(key string) (int, error) {
	code, ok := r.codes[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, key)
	}
	return code, nil
}

// Resolve returns the key for a surrogate code.
func (r *variantRegistry) Resolve(code int) (string, error) {
	if code < 0 || code >= len(r.keys) {
		return "", fmt.Errorf("%w: code %d", ErrUnknownVariant, code)
	}
	return r.keys[code], nil
}

func (r *variantRegistry) Len() int {
	return len(r.keys)
}

// Keys returns the registered keys in code order. Callers must not
// modify the returned slice.
func (r *variantRegistry) Keys() []string {
	return r.keys
}
