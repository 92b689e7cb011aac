// Licensed to Apache Software Foundation (ASF) under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Apache Software Foundation (ASF) licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package datadog

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/fanki/datadog-mcp/internal/domain"
)

const defaultTraceTTL = 10 * time.Minute

// TraceCache keeps recently fetched traces keyed by site and trace id.
// A nil *TraceCache is a valid, disabled cache.
type TraceCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewTraceCache holds up to maxTraces traces; each trace costs 1 whatever its
// size. Zero disables caching.
func NewTraceCache(maxTraces int64) (*TraceCache, error) {
	if maxTraces <= 0 {
		return nil, nil
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        maxTraces * 10,
		MaxCost:            maxTraces,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create trace cache: %w", err)
	}
	return &TraceCache{cache: cache, ttl: defaultTraceTTL}, nil
}

func (c *TraceCache) Get(key string) (*domain.TraceDetail, bool) {
	if c == nil {
		return nil, false
	}
	value, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	trace, ok := value.(*domain.TraceDetail)
	return trace, ok
}

func (c *TraceCache) Set(key string, trace *domain.TraceDetail) bool {
	if c == nil {
		return false
	}
	return c.cache.SetWithTTL(key, trace, 1, c.ttl)
}

// Wait blocks until buffered writes are applied.
func (c *TraceCache) Wait() {
	if c != nil {
		c.cache.Wait()
	}
}

func (c *TraceCache) Close() {
	if c != nil {
		c.cache.Close()
	}
}
