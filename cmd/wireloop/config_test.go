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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panjf2000/wireloop/protocol/mobproxy"
	"github.com/panjf2000/wireloop/protocol/udpdb"
)

// chdir moves into dir for the duration of the test, so that no config.yaml is found.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Address)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.MetricsAddress)
	assert.Equal(t, 10000, cfg.Port("smoketest"))
	assert.Equal(t, 10005, cfg.Port("mobproxy"))
	assert.Equal(t, mobproxy.DefaultUpstream, cfg.MobProxy.Upstream)
	assert.Equal(t, mobproxy.DefaultDialTimeout, cfg.MobProxy.DialTimeout)
	assert.Equal(t, udpdb.DefaultVersion, cfg.UDPDB.Version)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wireloop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
address: 127.0.0.1
log_level: debug
write_timeout: 0s
ports:
  budgetchat: 4000
mob_proxy:
  upstream: localhost:7000
  dial_timeout: 3s
udp_db:
  version: test 1.0
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Address)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Zero(t, cfg.WriteTimeout)
	assert.Equal(t, 4000, cfg.Port("budgetchat"))
	assert.Equal(t, 10001, cfg.Port("jsonprime"))
	assert.Equal(t, "localhost:7000", cfg.MobProxy.Upstream)
	assert.Equal(t, 3*time.Second, cfg.MobProxy.DialTimeout)
	assert.Equal(t, "test 1.0", cfg.UDPDB.Version)
}

func TestLoadConfigEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("WIRELOOP_ADDRESS", "::1")
	t.Setenv("WIRELOOP_PORTS_UDPDB", "5000")
	t.Setenv("WIRELOOP_MOB_PROXY_TOKEN", "7abcdefghijklmnopqrstuvwxyz")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "::1", cfg.Address)
	assert.Equal(t, 5000, cfg.Port("udpdb"))
	assert.Equal(t, "7abcdefghijklmnopqrstuvwxyz", cfg.MobProxy.Token)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSelectServices(t *testing.T) {
	all, err := selectServices(nil)
	require.NoError(t, err)
	assert.Len(t, all, 6)
	for i, svc := range all {
		assert.Equal(t, i, svc.id)
	}

	selected, err := selectServices([]string{"mobproxy", "1", "JsonPrime", "budgetchat"})
	require.NoError(t, err)
	keys := make([]string, 0, len(selected))
	for _, svc := range selected {
		keys = append(keys, svc.key)
	}
	assert.Equal(t, []string{"jsonprime", "budgetchat", "mobproxy"}, keys)

	_, err = selectServices([]string{"7"})
	assert.Error(t, err)
	_, err = selectServices([]string{"chat"})
	assert.Error(t, err)
}
