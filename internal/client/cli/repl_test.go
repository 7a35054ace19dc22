package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  [][]string
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }

func (f *fakeExec) Register(ctx context.Context) error { return f.record("register", nil) }
func (f *fakeExec) Login(ctx context.Context) error {
	f.loggedIn = true
	return f.record("login", nil)
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.record("logout", nil)
}
func (f *fakeExec) Whoami(ctx context.Context) error  { return f.record("whoami", nil) }
func (f *fakeExec) Refresh(ctx context.Context) error { return f.record("refresh", nil) }

func (f *fakeExec) Open(ctx context.Context, args []string) error  { return f.record("open", args) }
func (f *fakeExec) Show(ctx context.Context) error                 { return f.record("show", nil) }
func (f *fakeExec) Set(ctx context.Context, args []string) error   { return f.record("set", args) }
func (f *fakeExec) Unset(ctx context.Context, args []string) error { return f.record("unset", args) }
func (f *fakeExec) SaveRecord(ctx context.Context) error           { return f.record("save", nil) }
func (f *fakeExec) DeleteRecord(ctx context.Context) error         { return f.record("delete", nil) }
func (f *fakeExec) RevertRecord(ctx context.Context) error         { return f.record("revert", nil) }
func (f *fakeExec) CloseRecord(ctx context.Context) error          { return f.record("close", nil) }

func (f *fakeExec) List(ctx context.Context, args []string) error { return f.record("list", args) }
func (f *fakeExec) Find(ctx context.Context, args []string) error { return f.record("find", args) }
func (f *fakeExec) Page(ctx context.Context, args []string) error { return f.record("page", args) }
func (f *fakeExec) Next(ctx context.Context) error                { return f.record("next", nil) }

func (f *fakeExec) AttachFiles(ctx context.Context, args []string) error {
	return f.record("attach", args)
}
func (f *fakeExec) ListFiles(ctx context.Context) error { return f.record("files", nil) }
func (f *fakeExec) DownloadFile(ctx context.Context, args []string) error {
	return f.record("download", args)
}
func (f *fakeExec) DetachFile(ctx context.Context, args []string) error {
	return f.record("detach", args)
}

func silencePrintln(t *testing.T) {
	t.Helper()
	orig := printlnFn
	printlnFn = func(...any) {}
	t.Cleanup(func() { printlnFn = orig })
}

func TestDispatch_ExitReturnsFalse(t *testing.T) {
	silencePrintln(t)
	exec := &fakeExec{loggedIn: true}

	assert.False(t, dispatch(context.Background(), exec, "exit"))
	assert.False(t, dispatch(context.Background(), exec, "quit"))
	assert.Empty(t, exec.calls)
}

func TestDispatch_BlankLineIgnored(t *testing.T) {
	silencePrintln(t)
	exec := &fakeExec{loggedIn: true}

	assert.True(t, dispatch(context.Background(), exec, "   "))
	assert.Empty(t, exec.calls)
}

func TestDispatch_LoggedOutGating(t *testing.T) {
	silencePrintln(t)
	exec := &fakeExec{loggedIn: false}

	dispatch(context.Background(), exec, "list books")
	dispatch(context.Background(), exec, "save")
	assert.Empty(t, exec.calls)

	dispatch(context.Background(), exec, "register")
	dispatch(context.Background(), exec, "login")
	assert.Equal(t, []string{"register", "login"}, exec.calls)
}

func TestDispatch_RoutesCommandsWithArgs(t *testing.T) {
	silencePrintln(t)
	exec := &fakeExec{loggedIn: true}
	ctx := context.Background()

	dispatch(ctx, exec, "open books new")
	dispatch(ctx, exec, "set title War and Peace")
	dispatch(ctx, exec, "save")
	dispatch(ctx, exec, "find books title == Hamlet")
	dispatch(ctx, exec, "l books")
	dispatch(ctx, exec, "next")
	dispatch(ctx, exec, "logout")

	assert.Equal(t, []string{"open", "set", "save", "find", "list", "next", "logout"}, exec.calls)
	assert.Equal(t, []string{"books", "new"}, exec.args[0])
	assert.Equal(t, []string{"title", "War", "and", "Peace"}, exec.args[1])
	assert.Equal(t, []string{"books", "title", "==", "Hamlet"}, exec.args[3])
}

func TestDispatch_UnknownCommand(t *testing.T) {
	var printed []string
	orig := printlnFn
	printlnFn = func(a ...any) {
		for _, v := range a {
			if s, ok := v.(string); ok {
				printed = append(printed, s)
			}
		}
	}
	t.Cleanup(func() { printlnFn = orig })

	exec := &fakeExec{loggedIn: true}
	assert.True(t, dispatch(context.Background(), exec, "frobnicate"))
	assert.Empty(t, exec.calls)
	assert.Contains(t, printed, "Unknown command:")
}
