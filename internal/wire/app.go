package wire

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mithrel/inkpad/internal/config"
	"github.com/mithrel/inkpad/internal/db"
	"github.com/mithrel/inkpad/internal/documents"
	"github.com/mithrel/inkpad/internal/export"
	"github.com/mithrel/inkpad/internal/notify"
	"github.com/mithrel/inkpad/internal/session"
	"github.com/mithrel/inkpad/internal/theme"
	"github.com/mithrel/inkpad/pkg/api"
)

// App aggregates the major services for easy injection.
type App struct {
	Cfg      *viper.Viper
	Log      *zap.Logger
	Store    db.Store
	Docs     *documents.Store
	Theme    *theme.Store
	Notices  *notify.Board
	Exporter *export.Exporter
	Session  *session.Controller

	closeOnce sync.Once
	closeErr  error
}

// BuildApp wires dependencies from a loaded config.
func BuildApp(ctx context.Context, v *viper.Viper) (*App, error) {
	logger, err := NewLogger(v.GetString("log.level"), v.GetString("log.file"))
	if err != nil {
		return nil, err
	}

	url := config.ResolveStoreURL(v)
	store, err := db.Open(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("store opened", zap.String("url", redact(url)))

	docs := documents.New(store, logger.Named("documents"))
	docs.Load(ctx)

	fallback, ok := api.ParseTheme(v.GetString("theme.default"))
	if !ok {
		fallback = api.ThemeLight
	}
	th := theme.New(store, fallback)

	board := notify.NewBoard(v.GetDuration("notify.dismiss_after"))
	noticeLog := logger.Named("notice")
	notes := notify.Func(func(n notify.Notice) {
		noticeLog.Info(n.Message, zap.Stringer("level", n.Level), zap.Bool("sticky", n.Sticky))
		board.Notify(n)
	})

	exp := export.New(logger.Named("export"))
	ctl := session.New(docs, notes, exp, logger.Named("session"), session.Options{
		QuietPeriod:  v.GetDuration("autosave.quiet_period"),
		IndicatorFor: v.GetDuration("autosave.indicator_for"),
		HistoryMax:   v.GetInt("history.max_entries"),
	})

	return &App{
		Cfg:      v,
		Log:      logger,
		Store:    store,
		Docs:     docs,
		Theme:    th,
		Notices:  board,
		Exporter: exp,
		Session:  ctl,
	}, nil
}

// Close stops timers, flushes logs and closes the store.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.Session.Close()
		a.Notices.Close()
		a.closeErr = a.Store.Close()
		_ = a.Log.Sync()
	})
	return a.closeErr
}

// redact hides credentials in a store url before it is logged.
func redact(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		return scheme + "://***@" + rest[at+1:]
	}
	return url
}
