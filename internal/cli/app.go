package cli

import (
	"fmt"
	"io"

	"github.com/oliverschmidt99/daily-doc-app/internal/doku"
	"github.com/oliverschmidt99/daily-doc-app/internal/fs"
	"github.com/oliverschmidt99/daily-doc-app/internal/vcs"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app is what every command works against: the resolved config and the
// store, service and syncer built from it.
type app struct {
	cfg   doku.Config
	stdin io.Reader
	log   *zap.Logger

	fs     fs.FS
	store  *doku.Store
	svc    *doku.Service
	syncer *vcs.Syncer
}

func newApp(cfg doku.Config, stdin io.Reader, logOut io.Writer, level string) (*app, error) {
	log, err := newLogger(logOut, level)
	if err != nil {
		return nil, err
	}

	fsys := fs.NewReal()
	store := doku.NewStore(fsys, cfg.DataDirAbs, log.Named("store"))

	syncer := vcs.NewSyncer(vcs.ExecRunner{Dir: store.Dir}, vcs.Commands{
		Status: cfg.Sync.Status,
		Pull:   cfg.Sync.Pull,
		Push:   cfg.Sync.Push,
	}, log.Named("sync"))

	return &app{
		cfg:    cfg,
		stdin:  stdin,
		log:    log,
		fs:     fsys,
		store:  store,
		svc:    doku.NewService(store),
		syncer: syncer,
	}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

// newLogger builds a production JSON logger writing to w.
func newLogger(w io.Writer, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", doku.ErrInvalidLogLevel, level)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(lvl),
	)

	return zap.New(core), nil
}
