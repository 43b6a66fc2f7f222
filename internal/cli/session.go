package cli

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/ombu/internal/config"
	"github.com/roach88/ombu/internal/engine"
	"github.com/roach88/ombu/internal/logging"
	"github.com/roach88/ombu/internal/metrics"
	"github.com/roach88/ombu/internal/model"
	"github.com/roach88/ombu/internal/oracle/local"
	"github.com/roach88/ombu/internal/storage"
	"github.com/roach88/ombu/internal/storage/badger"
	"github.com/roach88/ombu/internal/storage/sqlite"
)

// session is one CLI invocation's forum: config, store, local oracle and
// engine. Oracle state is written back on close when the command changed it.
type session struct {
	opts     *RootOptions
	cmd      *cobra.Command
	cfg      config.Config
	log      zerolog.Logger
	out      *OutputFormatter
	store    storage.Storage
	oracle   *local.Oracle
	forum    *engine.Forum
	registry *prometheus.Registry
	dirty    bool
}

// resolveConfig loads the config file, if any, and applies flag overrides.
func resolveConfig(opts *RootOptions) (config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return config.Config{}, err
		}
	}

	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.Backend != "" {
		cfg.Backend = opts.Backend
	}
	if opts.OracleState != "" {
		cfg.Oracle.State = opts.OracleState
	}
	if opts.Sender != "" {
		cfg.Admin = opts.Sender
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	if opts.Metrics {
		cfg.Metrics.Enabled = true
	}

	switch cfg.Backend {
	case config.BackendSQLite, config.BackendBadger:
	default:
		return config.Config{}, fmt.Errorf("invalid backend %q: must be %s or %s", cfg.Backend, config.BackendSQLite, config.BackendBadger)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openStore opens the configured backend.
func openStore(cfg config.Config, log zerolog.Logger) (storage.Storage, error) {
	if cfg.Backend == config.BackendBadger {
		return badger.Open(cfg.Database, log)
	}
	return sqlite.Open(cfg.Database)
}

func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := resolveConfig(opts)
	if err != nil {
		_ = out.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	log, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		_ = out.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "invalid log settings", err)
	}

	st, err := openStore(cfg, log)
	if err != nil {
		_ = out.Error(ErrCodeStorage, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	forumAddr, _ := model.ParseAddress(cfg.Oracle.Forum)
	orc := local.New(forumAddr)
	if err := orc.Load(cfg.Oracle.State); err != nil {
		st.Close()
		_ = out.Error(ErrCodeStorage, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to load oracle state", err)
	}

	s := &session{
		opts:   opts,
		cmd:    cmd,
		cfg:    cfg,
		log:    log,
		out:    out,
		store:  st,
		oracle: orc,
	}

	forumOpts := []engine.Option{engine.WithLogger(log)}
	if cfg.Metrics.Enabled {
		s.registry = prometheus.NewRegistry()
		forumOpts = append(forumOpts, engine.WithMetrics(metrics.NewForumCollector(cfg.Metrics.Namespace, s.registry)))
	}
	s.forum = engine.New(st, orc, forumOpts...)

	log.Debug().
		Str("backend", cfg.Backend).
		Str("database", cfg.Database).
		Str("oracle_state", cfg.Oracle.State).
		Msg("session opened")
	return s, nil
}

// withSession opens a session, runs fn, and closes the session.
func withSession(cmd *cobra.Command, opts *RootOptions, fn func(s *session) error) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	runErr := fn(s)
	if closeErr := s.close(); closeErr != nil && runErr == nil {
		return WrapExitError(ExitCommandError, "failed to close session", closeErr)
	}
	return runErr
}

// close saves oracle state if needed, dumps metrics, and closes the store.
func (s *session) close() error {
	var saveErr error
	if s.dirty {
		saveErr = s.oracle.Save(s.cfg.Oracle.State)
	}
	if s.registry != nil {
		s.dumpMetrics()
	}
	if err := s.store.Close(); err != nil {
		return err
	}
	return saveErr
}

func (s *session) dumpMetrics() {
	families, err := s.registry.Gather()
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to gather metrics")
		return
	}
	w := s.cmd.ErrOrStderr()
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			s.log.Warn().Err(err).Msg("failed to write metrics")
			return
		}
	}
}

// sender returns the caller address from --sender or the config admin.
func (s *session) sender() (model.Address, error) {
	if s.cfg.Admin == "" {
		return model.Address{}, s.badArgs(fmt.Errorf("no sender: pass --sender or set admin in the config"))
	}
	return model.ParseAddress(s.cfg.Admin)
}

// oracleAddress returns the configured oracle address.
func (s *session) oracleAddress() model.Address {
	addr, _ := model.ParseAddress(s.cfg.Oracle.Address)
	return addr
}

// call runs a forum call and renders its outcome. Successful mutating calls
// mark the oracle state dirty so it is saved on close.
func (s *session) call(mutates bool, fn func() (interface{}, string, error)) error {
	data, text, err := fn()
	if err != nil {
		return s.out.CallError(err)
	}
	if mutates {
		s.dirty = true
	}
	return s.out.Result(data, text)
}

// badArgs reports an argument error.
func (s *session) badArgs(err error) error {
	_ = s.out.Error(ErrCodeBadArgs, err.Error(), nil)
	return WrapExitError(ExitCommandError, "invalid arguments", err)
}

func parseGroup(s string) (model.GroupID, error) {
	return model.ParseGroupID(strings.TrimSpace(s))
}
