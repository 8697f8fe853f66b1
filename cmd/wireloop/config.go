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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/panjf2000/wireloop/protocol/mobproxy"
	"github.com/panjf2000/wireloop/protocol/udpdb"
)

const envVarPrefix = "WIRELOOP"

// Config contains every option of the wireloop command, it is read from
// config.yaml and WIRELOOP_* environment variables.
type Config struct {
	// Host or IP address on which the services listen.
	Address string `mapstructure:"address"`
	// Minimum level of a log required to be written. Options: debug, info, warn, error
	LogLevel string `mapstructure:"log_level"`
	// Full path to the file logs are written to. Blank writes to stdout.
	LogFile string `mapstructure:"log_file"`
	// Address of the HTTP endpoint serving prometheus metrics. Blank disables metrics.
	MetricsAddress string `mapstructure:"metrics_address"`
	// Limit of buffered bytes of an incomplete message, zero means no limit.
	MaxUnitSize int `mapstructure:"max_unit_size"`
	// Capacity of the event channel of each service.
	EventBufferCap int `mapstructure:"event_buffer_cap"`
	// Limit of a single write to a client, zero means no limit.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// Port of every service, keyed by service key.
	Ports map[string]int `mapstructure:"ports"`

	MobProxy struct {
		// Address of the chat server behind the proxy.
		Upstream string `mapstructure:"upstream"`
		// Address substituted for every address seen in a message.
		Token string `mapstructure:"token"`
		// Limit of the time spent connecting to the upstream.
		DialTimeout time.Duration `mapstructure:"dial_timeout"`
	} `mapstructure:"mob_proxy"`

	UDPDB struct {
		// Value reported for the version key.
		Version string `mapstructure:"version"`
	} `mapstructure:"udp_db"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("address", "0.0.0.0")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("metrics_address", "")
	v.SetDefault("max_unit_size", 1<<20)
	v.SetDefault("event_buffer_cap", 256)
	v.SetDefault("write_timeout", 10*time.Second)
	for i, svc := range services {
		v.SetDefault("ports."+svc.key, 10000+i)
	}
	v.SetDefault("mob_proxy.upstream", mobproxy.DefaultUpstream)
	v.SetDefault("mob_proxy.token", mobproxy.DefaultToken)
	v.SetDefault("mob_proxy.dial_timeout", mobproxy.DefaultDialTimeout)
	v.SetDefault("udp_db.version", udpdb.DefaultVersion)
}

// LoadConfig reads the configuration from configFile, or from config.yaml in
// the working directory when configFile is blank. A missing config.yaml is not
// an error, the defaults and the environment apply.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Nested options are set through the environment with underscores,
	// mob_proxy.upstream is read from WIRELOOP_MOB_PROXY_UPSTREAM.
	v.SetEnvPrefix(envVarPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config object: %w", err)
	}
	if config.EventBufferCap <= 0 {
		return nil, fmt.Errorf("invalid event_buffer_cap %d", config.EventBufferCap)
	}
	return config, nil
}

// Port returns the configured port of the service with the given key.
func (c *Config) Port(key string) int {
	return c.Ports[key]
}
