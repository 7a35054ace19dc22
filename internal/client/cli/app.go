// Package cli implements the interactive terminal client: a readline REPL
// over the record store, driven by the session, docform and filetransfer
// handlers.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"recordkeeper/internal/blobstore"
	"recordkeeper/internal/client/config"
	"recordkeeper/internal/client/docform"
	"recordkeeper/internal/client/filetransfer"
	"recordkeeper/internal/client/localdb"
	"recordkeeper/internal/client/notify"
	"recordkeeper/internal/client/repositories/metadata"
	"recordkeeper/internal/client/session"
	"recordkeeper/internal/common"
	"recordkeeper/internal/docstore"
	"recordkeeper/internal/logging"
	"recordkeeper/internal/schema"
	serverconfig "recordkeeper/internal/server/config"
	"recordkeeper/internal/server/repositories/repomanager"
	"recordkeeper/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// pageQuery remembers the last paged query so "next" can continue it.
type pageQuery struct {
	collection string
	pageSize   int
	orderBy    string
	filters    []docstore.Filter
}

// App wires the client together and implements every REPL command. It also
// serves as the docform navigator: "navigation" is a route string the prompt
// displays.
type App struct {
	config   *config.Config
	logger   logging.Logger
	notifier notify.Notifier
	session  *session.Service
	docs     docstore.Store
	blobs    blobstore.Store
	schemas  map[string]*schema.Schema

	db      *sql.DB
	localDB *sql.DB

	in  *bufio.Reader
	out io.Writer
	rl  *readline.Instance

	route      string
	collection string
	form       *docform.Handler
	transfer   *filetransfer.Handler

	lastQuery  *pageQuery
	lastCursor *docstore.Cursor
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	localDB, err := localdb.InitDatabase(ctx, c.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing local database: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		return nil, err
	}

	userService := services.NewUserService(db, rm, &serverconfig.Config{
		SecretKey:                    c.SecretKey,
		AccessTokenValidityDuration:  c.AccessTokenValidityDuration,
		RefreshTokenValidityDuration: c.RefreshTokenValidityDuration,
	})

	blobs, err := blobstore.NewS3Store(ctx, blobstore.S3Options{
		RootUser:     c.S3RootUser,
		RootPassword: c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("error initializing file storage: %w", err)
	}

	return &App{
		config:   c,
		logger:   logger,
		notifier: notify.NewTerminalNotifier(os.Stdout),
		session:  session.NewService(userService, metadata.NewSQLiteRepository(localDB)),
		docs:     docstore.NewPostgresStore(db),
		blobs:    blobs,
		schemas:  collectionSchemas(),
		db:       db,
		localDB:  localDB,
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		route:    "/",
	}, nil
}

// Run starts the session, restores any persisted login, and enters the REPL.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	if err := a.session.Start(ctx); err != nil {
		return fmt.Errorf("error starting session: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     "/tmp/recordkeeper_history.tmp",
		AutoComplete:    loggedOutCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("error initializing readline: %w", err)
	}
	a.rl = rl
	defer rl.Close()

	// Swap the completion set whenever the auth state flips. The subscription
	// fires immediately with the restored state.
	a.session.Subscribe(func(u *session.User) {
		if u == nil {
			rl.Config.AutoComplete = loggedOutCompleter()
		} else {
			rl.Config.AutoComplete = loggedInCompleter(a.collectionNames())
		}
	})

	if a.session.Current() == nil {
		printlnFn("Not signed in. Use: register | login")
	}

	for {
		rl.SetPrompt(a.prompt())

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		} else if err != nil {
			return err
		}

		if !dispatch(ctx, a, line) {
			break
		}
	}
	return nil
}

// Close releases both database handles.
func (a *App) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.localDB != nil {
		_ = a.localDB.Close()
	}
}

// Navigate implements docform.Navigator. Routes are purely informational in
// the CLI: the prompt shows where the form thinks it is.
func (a *App) Navigate(route string) {
	a.route = route
}

func (a *App) prompt() string {
	user := a.session.Current()
	if user == nil {
		return "> "
	}
	return fmt.Sprintf("%s %s> ", user.Email, a.route)
}

func (a *App) isLoggedIn() bool {
	return a.session.Current() != nil
}

// confirm asks a yes/no question on the terminal. Only an explicit "y"/"yes"
// counts as consent.
func (a *App) confirm(prompt string) bool {
	answer, err := GetSimpleText(a.in, prompt+" [y/N]", a.out)
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

func (a *App) collectionNames() []string {
	names := make([]string, 0, len(a.schemas))
	for name := range a.schemas {
		names = append(names, name)
	}
	return names
}

// bindTransfer keeps the file handler aligned with the currently open form.
// The form's ID changes after the first save of a new record, so the binding
// is refreshed before every file operation rather than cached.
func (a *App) bindTransfer() error {
	if a.form == nil {
		return fmt.Errorf("no record is open")
	}
	if a.transfer == nil {
		a.transfer = filetransfer.NewHandler(a.collection, filetransfer.Options{
			Store:    a.docs,
			Blobs:    a.blobs,
			Notifier: a.notifier,
			Logger:   a.logger,
			Progress: func(name string, pct float64) {
				printlnFn(fmt.Sprintf("%s: %.0f%%", name, pct))
			},
		})
	}

	entries, _ := a.form.Field("files")
	list, _ := entries.([]any)
	a.transfer.Bind(a.form.ID(), list)
	return nil
}

// openForm binds a fresh form handler to (collection, id).
func (a *App) openForm(ctx context.Context, collection, id string) error {
	s, ok := a.schemas[collection]
	if !ok {
		return fmt.Errorf("unknown collection %q", collection)
	}

	if a.form != nil && !a.form.ConfirmLeave() {
		return nil
	}

	a.collection = collection
	a.transfer = nil
	a.form = docform.NewHandler(docform.Options{
		Store:     a.docs,
		Schema:    s,
		Notifier:  a.notifier,
		Confirm:   a.confirm,
		Navigator: a,
		Logger:    a.logger,
	})
	a.form.Bind(ctx, id)

	// A failed load redirects to the create route. Follow it: mount an empty
	// form there so editing can start immediately instead of leaving the
	// handler stuck in its error state behind a create-route prompt.
	if a.form.State() == docform.ErrorState {
		a.form.Bind(ctx, common.NewDocumentID)
	}

	if a.form.State() == docform.Clean {
		a.route = "/" + collection + "/" + a.form.ID()
		if a.form.ID() == common.NewDocumentID {
			printlnFn("Editing a new record. Use: set <field> <value>, then save.")
		}
	}
	return nil
}
