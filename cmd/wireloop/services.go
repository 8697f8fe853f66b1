// Copyright (c) 2023 The Gnet Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/panjf2000/wireloop"
	"github.com/panjf2000/wireloop/pkg/ascii"
	"github.com/panjf2000/wireloop/pkg/kvstore"
	"github.com/panjf2000/wireloop/protocol/budgetchat"
	"github.com/panjf2000/wireloop/protocol/jsonprime"
	"github.com/panjf2000/wireloop/protocol/mobproxy"
	"github.com/panjf2000/wireloop/protocol/pricetracker"
	"github.com/panjf2000/wireloop/protocol/smoketest"
	"github.com/panjf2000/wireloop/protocol/udpdb"
)

// service describes how to build one of the protocols the command can serve.
type service struct {
	key   string
	id    int
	name  string
	build func(cfg *Config, opts []wireloop.Option) (wireloop.Service, error)
}

// services is ordered by problem id.
var services = []service{
	{
		key: "smoketest", id: smoketest.ProblemID, name: smoketest.Name,
		build: func(_ *Config, opts []wireloop.Option) (wireloop.Service, error) {
			return smoketest.New(opts...), nil
		},
	},
	{
		key: "jsonprime", id: jsonprime.ProblemID, name: jsonprime.Name,
		build: func(_ *Config, opts []wireloop.Option) (wireloop.Service, error) {
			return jsonprime.New(opts...), nil
		},
	},
	{
		key: "pricetracker", id: pricetracker.ProblemID, name: pricetracker.Name,
		build: func(_ *Config, opts []wireloop.Option) (wireloop.Service, error) {
			return pricetracker.New(opts...), nil
		},
	},
	{
		key: "budgetchat", id: budgetchat.ProblemID, name: budgetchat.Name,
		build: func(_ *Config, opts []wireloop.Option) (wireloop.Service, error) {
			return budgetchat.New(opts...), nil
		},
	},
	{
		key: "udpdb", id: udpdb.ProblemID, name: udpdb.Name,
		build: func(cfg *Config, opts []wireloop.Option) (wireloop.Service, error) {
			if _, err := ascii.New(cfg.UDPDB.Version); err != nil {
				return nil, fmt.Errorf("udp_db.version: %w", err)
			}
			return udpdb.New(kvstore.New(), cfg.UDPDB.Version, opts...), nil
		},
	},
	{
		key: "mobproxy", id: mobproxy.ProblemID, name: mobproxy.Name,
		build: func(cfg *Config, opts []wireloop.Option) (wireloop.Service, error) {
			return mobproxy.New(mobproxy.Config{
				Upstream:    cfg.MobProxy.Upstream,
				Token:       cfg.MobProxy.Token,
				DialTimeout: cfg.MobProxy.DialTimeout,
			}, opts...)
		},
	},
}

// lookupService finds a service by key or problem id.
func lookupService(s string) (service, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	id, err := strconv.Atoi(s)
	for _, svc := range services {
		if svc.key == s || (err == nil && svc.id == id) {
			return svc, true
		}
	}
	return service{}, false
}

// selectServices resolves names to services, no names selects all of them.
// Duplicates are dropped and the result is ordered by problem id.
func selectServices(names []string) ([]service, error) {
	if len(names) == 0 {
		return services, nil
	}

	seen := make(map[string]bool, len(names))
	var selected []service
	for _, name := range names {
		svc, ok := lookupService(name)
		if !ok {
			return nil, fmt.Errorf("unknown service %q", name)
		}
		if seen[svc.key] {
			continue
		}
		seen[svc.key] = true
		selected = append(selected, svc)
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].id < selected[j].id })
	return selected, nil
}
