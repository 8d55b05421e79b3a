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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

var logger zerolog.Logger = zerolog.New(zerolog.ConsoleWriter{
	Out:        os.Stdout,
	NoColor:    false,
	TimeFormat: "15:04:05.000",
}).
	With().Timestamp().
	Str("package", "config").
	Logger()

// EngineConfig is the set of env-driven knobs a dialogue-agent process
// needs before it can build its protocols.Dialogues coordinator.
type EngineConfig struct {
	SelfAddress         string
	DialogueName        string
	KeepTerminalState   bool
	MetricsListenAddr   string
}

// InitFromEnv loads os.Args[1] as a dotenv file (overriding any variable
// already in the environment) and populates an EngineConfig from it. A
// missing DIALOGUE_SELF_ADDRESS is fatal: nothing downstream can build a
// dialogue label without it.
func (cfg *EngineConfig) InitFromEnv() error {
	envFile := os.Args[1]
	logger.Debug().Msgf("env_file: %s", envFile)
	if err := godotenv.Overload(envFile); err != nil {
		logger.Error().Str("err", err.Error()).Msg("Error loading env file")
		return err
	}

	cfg.SelfAddress = os.Getenv("DIALOGUE_SELF_ADDRESS")
	cfg.DialogueName = os.Getenv("DIALOGUE_NAME")
	if cfg.DialogueName == "" {
		cfg.DialogueName = "default_dialogue"
	}
	cfg.KeepTerminalState = os.Getenv("DIALOGUE_KEEP_TERMINAL_STATE") == "true"
	cfg.MetricsListenAddr = os.Getenv("DIALOGUE_METRICS_LISTEN_ADDR")
	if cfg.MetricsListenAddr == "" {
		cfg.MetricsListenAddr = ":9090"
	}

	if cfg.SelfAddress == "" {
		logger.Error().Msg("DIALOGUE_SELF_ADDRESS not set")
		return errMissingSelfAddress
	}
	return nil
}

var errMissingSelfAddress = configError("DIALOGUE_SELF_ADDRESS is required")

type configError string

func (e configError) Error() string { return string(e) }
