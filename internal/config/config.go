// Package config loads the ombu configuration.
//
// A config file is CUE with a top-level ombu struct:
//
//	ombu: {
//		database: "forum.db"
//		backend:  "badger"
//		log: level: "debug"
//	}
//
// The struct is unified with the embedded #Config schema, so unknown fields
// and out-of-range values are rejected and omitted fields take schema
// defaults.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"
)

//go:embed schema.cue
var schemaSource string

// Backend names a storage backend.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Config is the decoded configuration.
type Config struct {
	Database string        `json:"database"`
	Backend  string        `json:"backend"`
	Admin    string        `json:"admin"`
	Oracle   OracleConfig  `json:"oracle"`
	Log      LogConfig     `json:"log"`
	Metrics  MetricsConfig `json:"metrics"`
}

type OracleConfig struct {
	Address string `json:"address"`
	Forum   string `json:"forum"`
	State   string `json:"state"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type MetricsConfig struct {
	Enabled   bool   `json:"enabled"`
	Namespace string `json:"namespace"`
}

// Default returns the schema defaults.
func Default() Config {
	cfg, err := decode(cuecontext.New(), nil)
	if err != nil {
		// the embedded schema is fixed at build time
		panic(fmt.Sprintf("config: invalid embedded schema: %v", err))
	}
	return cfg
}

// Load reads and validates the config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// Parse validates CUE config source. filename is used in error positions.
func Parse(data []byte, filename string) (Config, error) {
	ctx := cuecontext.New()
	file := ctx.CompileBytes(data, cue.Filename(filename))
	if err := file.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config %s: %w", filename, err)
	}
	root := file.LookupPath(cue.ParsePath("ombu"))
	if !root.Exists() {
		return Config{}, fmt.Errorf("config %s: missing top-level ombu struct", filename)
	}

	cfg, err := decode(ctx, &root)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", filename, err)
	}
	return cfg, nil
}

func decode(ctx *cue.Context, v *cue.Value) (Config, error) {
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, err
	}
	if v == nil {
		empty := ctx.CompileString("{}")
		v = &empty
	}
	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(*v)
	if err := unified.Validate(); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode: %w", err)
	}
	return cfg, nil
}

// Validate checks what the schema cannot express and reports every problem.
func (c Config) Validate() error {
	var result *multierror.Error
	checkAddress := func(field, value string, optional bool) {
		if value == "" && optional {
			return
		}
		if !common.IsHexAddress(value) {
			result = multierror.Append(result, fmt.Errorf("%s: invalid address %q", field, value))
		}
	}
	checkAddress("admin", c.Admin, true)
	checkAddress("oracle.address", c.Oracle.Address, false)
	checkAddress("oracle.forum", c.Oracle.Forum, false)
	if c.Database == "" {
		result = multierror.Append(result, fmt.Errorf("database: must not be empty"))
	}
	if c.Oracle.State == "" {
		result = multierror.Append(result, fmt.Errorf("oracle.state: must not be empty"))
	}
	return result.ErrorOrNil()
}
