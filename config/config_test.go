/* -*- coding: utf-8 -*-
* ------------------------------------------------------------------------------
*
*   Copyright 2018-2019 Fetch.AI Limited
*
*   Licensed under the Apache License, Version 2.0 (the "License");
*   you may not use this file except in compliance with the License.
*   You may obtain a copy of the License at
*
*       http://www.apache.org/licenses/LICENSE-2.0
*
*   Unless required by applicable law or agreed to in writing, software
*   distributed under the License is distributed on an "AS IS" BASIS,
*   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
*   See the License for the specific language governing permissions and
*   limitations under the License.
*
* ------------------------------------------------------------------------------
 */

package config

import (
	"os"
	"testing"
)

const (
	EnvTestFile        = "test_env_file.env"
	EnvTestFileMinimal = "test_env_minimal.env"
	EnvTestFileEmpty   = "test_env_empty.env"
)

var (
	selfAddress       = "fetch1x9v67meyfq4pkgy2n2yf6797cfkul327kpclqr"
	dialogueName      = "weather_station_dialogue"
	metricsListenAddr = ":9191"
)

func TestEngineConfigInitFromEnv(t *testing.T) {
	os.Args = []string{"cmd", EnvTestFile}

	cfg := EngineConfig{}
	if err := cfg.InitFromEnv(); err != nil {
		t.Fatal("Failed to initialise config", err)
	}

	if cfg.SelfAddress != selfAddress {
		t.Fatal("EngineConfig.SelfAddress not set")
	}
	if cfg.DialogueName != dialogueName {
		t.Fatal("EngineConfig.DialogueName not set")
	}
	if !cfg.KeepTerminalState {
		t.Fatal("EngineConfig.KeepTerminalState not set")
	}
	if cfg.MetricsListenAddr != metricsListenAddr {
		t.Fatal("EngineConfig.MetricsListenAddr not set")
	}
}

func TestEngineConfigDefaultsWhenUnset(t *testing.T) {
	os.Clearenv()
	os.Args = []string{"cmd", EnvTestFileMinimal}

	cfg := EngineConfig{}
	if err := cfg.InitFromEnv(); err != nil {
		t.Fatal("Failed to initialise config", err)
	}
	if cfg.DialogueName != "default_dialogue" {
		t.Fatal("EngineConfig.DialogueName should default when unset")
	}
	if cfg.MetricsListenAddr != ":9090" {
		t.Fatal("EngineConfig.MetricsListenAddr should default when unset")
	}
}

func TestEngineConfigMissingSelfAddressFails(t *testing.T) {
	os.Clearenv()
	os.Args = []string{"cmd", EnvTestFileEmpty}

	cfg := EngineConfig{}
	err := cfg.InitFromEnv()
	if err == nil {
		t.Fatal("expected InitFromEnv to fail without DIALOGUE_SELF_ADDRESS")
	}
}
