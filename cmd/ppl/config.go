/*
 * Copyright (c) 2022, Gideon Williams <gideon@gideonw.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package ppl

import (
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

var formats = []string{"table", "csv", "json"}

func initConfig(configFile string) {
	log := viper.Get("logger").(zerolog.Logger)

	// config Read
	viper.SetConfigType("toml")
	viper.AddConfigPath("config")
	viper.AddConfigPath("/etc/ppl")
	viper.AddConfigPath("/usr/local/etc/ppl")
	viper.AddConfigPath("$HOME/.ppl")
	viper.AddConfigPath(".")

	if configFile != "" {
		viper.SetConfigFile(configFile)
	}

	err := viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		log.Debug().Msg("No config file found, using defaults as a base")
	} else if err != nil {
		log.Error().Err(err).Msg("Error loading config file")
	}

	log.Debug().Str("file", viper.ConfigFileUsed()).Msg("loaded config from file")
}

// validateConfig checks the settings the query commands read, once flags,
// environment and config file have been merged.
func validateConfig() error {
	log := viper.Get("logger").(zerolog.Logger)

	workers := viper.GetInt("executor.workers")
	if workers < 0 {
		return errors.Errorf("executor.workers must not be negative, got %d", workers)
	}

	timeout := viper.GetDuration("executor.timeout")
	if timeout < 0 {
		return errors.Errorf("executor.timeout must not be negative, got %s", timeout)
	}

	format := strings.ToLower(viper.GetString("query.format"))
	if !slices.Contains(formats, format) {
		return errors.Errorf("query.format must be one of %s, got '%s'", strings.Join(formats, ", "), format)
	}
	viper.Set("query.format", format)

	port := viper.GetInt("metrics.port")
	if port < 0 || port > 65535 {
		return errors.Errorf("metrics.port out of range: %d", port)
	}

	data := viper.GetString("data")
	if data != "" {
		if _, err := os.Stat(data); err != nil {
			return errors.Wrap(err, "dataset")
		}
	}

	log.Debug().
		Str("data", data).
		Str("format", format).
		Int("workers", workers).
		Dur("timeout", timeout).
		Int("metrics_port", port).
		Msg("query settings")
	return nil
}

func initLogLevel() {
	level := viper.GetInt("ppl.verbose")
	switch clamp(2, level) {
	case 2:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case 1:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func initLogging() {
	var writer io.Writer

	writer = os.Stderr
	if viper.GetBool("ppl.local") {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(writer).
		With().
		Timestamp().
		Caller().
		Logger()

	viper.Set("logger", logger)
}

func traceConfig() {
	log := viper.Get("logger").(zerolog.Logger)

	for _, v := range viper.AllKeys() {
		if v == "logger" {
			continue
		}
		log.Trace().Msgf("%s=%v", v, viper.Get(v))
	}
}

func clamp(clamp, a int) int {
	if a >= clamp {
		return clamp
	}
	return a
}
