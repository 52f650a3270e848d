package engine

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"sqlprep/internal/apperr"
	"sqlprep/internal/dialect"
	"sqlprep/internal/logging"
	"sqlprep/internal/render"
	"sqlprep/internal/schema"
)

// Conn is a database connection able to run statement batches and
// introspection queries. *sql.DB, *sql.Conn and *sql.Tx all satisfy it.
type Conn interface {
	schema.Querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Opener opens an independent connection from a connection descriptor.
type Opener func(ctx context.Context, dsn string) (*sql.DB, error)

// DriverOpener returns an Opener for a registered database/sql driver. The
// returned handle is limited to one physical connection.
func DriverOpener(driver string) Opener {
	return func(ctx context.Context, dsn string) (*sql.DB, error) {
		db, err := sql.Open(driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %w", err)
		}
		db.SetMaxOpenConns(1)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to db: %w", err)
		}
		return db, nil
	}
}

// Config holds the collaborators of a Preprocessor.
type Config struct {
	Files   fs.FS           // SQL file root
	Dialect dialect.Dialect // target database flavour
	Schema  string          // schema to introspect, dialect default if empty
	// Settings resolves TABLESPACE_<AREA> and config.<KEY> lookups.
	Settings schema.Lookup
	// Open is used by RunParallel for the introspection and worker
	// connections.
	Open   Opener
	Logger *slog.Logger
	// OnSplit is called once per parallel run with the groups about to run.
	OnSplit func(groups []Group)
	// OnGroupDone is called from worker goroutines after each group, so it
	// must be safe for concurrent use.
	OnGroupDone func(GroupResult)
}

// Preprocessor renders SQL template files against a live database and
// executes them.
type Preprocessor struct {
	cfg Config
	log *slog.Logger
}

// New validates cfg and returns a Preprocessor.
func New(cfg Config) (*Preprocessor, error) {
	if cfg.Files == nil {
		return nil, apperr.Configf("no SQL file root configured")
	}
	if cfg.Dialect == nil {
		return nil, apperr.Configf("no dialect configured")
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Get()
	}
	return &Preprocessor{cfg: cfg, log: log.With("dialect", cfg.Dialect.Name())}, nil
}

func (p *Preprocessor) load(name string) (*render.Template, error) {
	src, err := fs.ReadFile(p.cfg.Files, name)
	if err != nil {
		return nil, &apperr.ConfigurationError{Msg: "cannot read SQL file " + name, Err: err}
	}
	return render.Parse(name, string(src))
}

func (p *Preprocessor) execute(ctx context.Context, q schema.Querier, t *render.Template, params render.Params) (string, error) {
	snap, err := schema.Analyze(ctx, q, p.cfg.Dialect, p.cfg.Schema, p.cfg.Settings)
	if err != nil {
		return "", err
	}
	out, err := t.Execute(render.Env{DB: snap, Params: params, Config: p.cfg.Settings})
	if err != nil {
		return "", err
	}
	p.log.Debug("rendered template", "file", t.Name(), "bytes", len(out))
	return out, nil
}

// Render expands the named file against a snapshot taken from conn without
// executing it.
func (p *Preprocessor) Render(ctx context.Context, conn schema.Querier, name string, params render.Params) (string, error) {
	t, err := p.load(name)
	if err != nil {
		return "", err
	}
	return p.execute(ctx, conn, t, params)
}

// Run renders the named file and executes it as one batch on conn.
func (p *Preprocessor) Run(ctx context.Context, conn Conn, name string, params render.Params) error {
	t, err := p.load(name)
	if err != nil {
		return err
	}
	return p.run(ctx, conn, t, params)
}

// RunString renders an inline template and executes it as one batch on conn.
func (p *Preprocessor) RunString(ctx context.Context, conn Conn, src string, params render.Params) error {
	t, err := render.Parse("<string>", src)
	if err != nil {
		return err
	}
	return p.run(ctx, conn, t, params)
}

func (p *Preprocessor) run(ctx context.Context, conn Conn, t *render.Template, params render.Params) error {
	text, err := p.execute(ctx, conn, t, params)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		p.log.Info("sql file rendered empty, nothing to execute", "file", t.Name())
		return nil
	}

	start := time.Now()
	if _, err := conn.ExecContext(ctx, text); err != nil {
		p.log.Error("sql file failed", "file", t.Name(), "error", apperr.Describe(err))
		return &apperr.ExecutionError{Group: apperr.SingleBatch, Err: err}
	}
	p.log.Info("sql file executed", "file", t.Name(), "elapsed", time.Since(start))
	return nil
}
