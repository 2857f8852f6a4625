package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lovenotes/anniversary/internal/bootstrap"
	"github.com/lovenotes/anniversary/internal/config"
	"github.com/lovenotes/anniversary/internal/content"
	"github.com/lovenotes/anniversary/internal/content/service"
	"github.com/lovenotes/anniversary/internal/page"
	"github.com/lovenotes/anniversary/internal/view"
	"github.com/lovenotes/anniversary/pkg/logger"
)

// cliEnv is what every command works against.
type cliEnv struct {
	schema  content.Schema
	content service.Service
	manager *page.Manager
	closers []bootstrap.Closer
}

func (e *cliEnv) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// loadEnv wires the configured backends the same way the server does.
func loadEnv(ctx context.Context) (*cliEnv, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	env := &cliEnv{}

	rdb, err := bootstrap.NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		env.closers = append(env.closers, func() { _ = rdb.Close() })
	}
	repo, closeRepo, err := bootstrap.NewRepository(ctx, cfg, rdb)
	if err != nil {
		env.close()
		return nil, err
	}
	env.closers = append(env.closers, closeRepo)

	uploader, closeUploader, err := bootstrap.NewUploader(ctx, cfg)
	if err != nil {
		env.close()
		return nil, err
	}
	env.closers = append(env.closers, closeUploader)

	if env.schema, err = bootstrap.LoadSchema(cfg); err != nil {
		env.close()
		return nil, err
	}
	loc, err := bootstrap.Location(cfg)
	if err != nil {
		env.close()
		return nil, err
	}
	startField, _ := env.schema.Field(view.FieldStartDate)

	env.content = service.New(repo, cfg.Content.Collection, cfg.Content.Document)
	env.manager = page.NewManager(page.Options{
		Schema:   env.schema,
		Content:  env.content,
		Uploader: uploader,
		Cropper:  bootstrap.NewCropper(cfg),
		Clock:    view.NewClock(loc, startField.Default),
	})
	return env, nil
}

// newRootCmd builds the command tree. A non-nil env is used as is, which is
// how tests run commands against an in-memory store.
func newRootCmd(env *cliEnv) *cobra.Command {
	var (
		logLevel string
		timeout  time.Duration
		owned    bool
	)
	root := &cobra.Command{
		Use:           "contentctl",
		Short:         "Inspect and edit the anniversary site content",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Init(logLevel)
			if env != nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			e, err := loadEnv(ctx)
			if err != nil {
				return fmt.Errorf("load backends: %w", err)
			}
			env, owned = e, true
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if owned {
				env.close()
			}
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().DurationVar(&timeout, "connect-timeout", time.Minute, "backend connection timeout")

	envFn := func() *cliEnv { return env }
	root.AddCommand(
		newShowCmd(envFn),
		newGetCmd(envFn),
		newSetCmd(envFn),
		newSchemaCmd(envFn),
		newUploadCmd(envFn),
		newElapsedCmd(envFn),
	)
	return root
}
