package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"gemlaunch/internal/config"
	"gemlaunch/internal/environ"
	"gemlaunch/internal/execx"
	"gemlaunch/internal/logx"
	"gemlaunch/internal/paths"
	"gemlaunch/internal/resolve"
	"gemlaunch/internal/tools"
)

// session bundles everything a command needs about the project and user.
type session struct {
	project paths.ProjectPaths
	user    paths.UserPaths
	global  config.Global
	cfg     config.Config
	env     environ.List
	logger  *log.Logger
	closer  io.Closer
	runner  execx.Runner
}

func openSession(cmd *cobra.Command) (*session, error) {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return nil, err
	}
	exists, err := paths.DirExists(pp.Root)
	if err != nil {
		return nil, fmt.Errorf("stat project dir: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("project directory does not exist: %s", pp.Root)
	}

	global, err := config.LoadGlobal(paths.User("").ConfigFile)
	if err != nil {
		return nil, err
	}
	user := paths.User(global.CacheDir)

	logger, closer, err := logx.New(user, logx.Options{
		Level:   global.LogLevel,
		Verbose: verbose,
		Stderr:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	s := &session{
		project: pp,
		user:    user,
		global:  global,
		logger:  logger,
		closer:  closer,
		runner:  execx.CmdRunner{Isolated: true},
	}
	logger.Debug("session", "command", cmd.CommandPath(), "project", pp.Root, "cache", user.CacheDir)

	s.cfg, err = config.Load(pp.ConfigFile)
	if err != nil {
		s.Close()
		return nil, err
	}
	for _, v := range s.cfg.ValidateStrict(tools.KnownTools()) {
		logger.Warn(v.Message, "config", pp.ConfigFile)
	}

	s.env = environ.Parse(os.Environ())
	if loginEnv {
		shellEnv, err := execx.LoginShellEnv(cmd.Context(), s.runner, "")
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("capture login shell environment: %w", err)
		}
		s.env = shellEnv
	}
	return s, nil
}

func (s *session) Close() {
	if s.closer != nil {
		_ = s.closer.Close()
	}
}

func (s *session) resolver(reporter resolve.Reporter) *resolve.Resolver {
	return resolve.New(resolve.Options{
		CacheDir: s.user.CacheDir,
		Ruby:     s.global.Ruby,
		Gem:      s.global.Gem,
		Bundle:   s.global.Bundle,
		Runner:   s.runner,
		Reporter: reporter,
		Logger:   s.logger,
	})
}

func (s *session) request(def tools.Definition) resolve.Request {
	return resolve.Request{
		Tool:        def,
		ProjectRoot: s.project.Root,
		Env:         s.env,
		Settings:    s.cfg.Tool(def.ID),
	}
}

// lookupTools maps ids to definitions; no ids means every known tool.
func lookupTools(ids []string) ([]tools.Definition, error) {
	if len(ids) == 0 {
		ids = tools.KnownTools()
	}
	defs := make([]tools.Definition, 0, len(ids))
	for _, id := range ids {
		def, err := tools.Lookup(id)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
