package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/surge-devops/surge/internal/collect"
	"github.com/surge-devops/surge/internal/store"
)

// bind maps config keys to flags so an explicit flag wins over the config
// file and environment.
func (a *app) bind(fs *pflag.FlagSet, keys map[string]string) {
	v := a.loader.Viper()
	for key, name := range keys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// openStore opens the history database at history.path or its default.
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	path := a.cfg.History.Path
	if path == "" {
		path = store.DefaultPath()
	}
	return store.Open(ctx, path)
}

// record saves snap and trims the history to history.keep samples.
func (a *app) record(ctx context.Context, snap *collect.Snapshot) error {
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Sink(a.keep())(ctx, snap); err != nil {
		return err
	}
	log.Debug().Str("path", st.Path()).Msg("Snapshot recorded")
	return nil
}

func (a *app) keep() int {
	if a.cfg.History.Keep > 0 {
		return a.cfg.History.Keep
	}
	return store.DefaultKeep
}
