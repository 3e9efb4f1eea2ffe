package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shoenig/test/must"

	"runq/trace"
)

const cliScript = `{"name":"cli","levels":4,"threads":4,"ops":[
	{"op":"add","thread":2,"level":3},
	{"op":"peek"},
	{"op":"del","thread":2,"level":1}]}`

func writeScript(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "ops.json")
	must.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadScriptFromFile(t *testing.T) {
	s, err := loadScript(writeScript(t, cliScript))
	must.NoError(t, err)
	must.Eq(t, "cli", s.Name)
	must.Len(t, 3, s.Ops)
}

func TestLoadScriptFromStdin(t *testing.T) {
	f, err := os.Open(writeScript(t, cliScript))
	must.NoError(t, err)
	defer f.Close()

	saved := os.Stdin
	os.Stdin = f
	t.Cleanup(func() { os.Stdin = saved })

	s, err := loadScript("-")
	must.NoError(t, err)
	must.Eq(t, 4, s.Levels)
}

func TestLoadScriptErrors(t *testing.T) {
	_, err := loadScript(filepath.Join(t.TempDir(), "missing.json"))
	must.ErrorIs(t, err, os.ErrNotExist)

	_, err = loadScript(writeScript(t, `{"ops":[{"op":"fly"}]}`))
	must.ErrorIs(t, err, trace.ErrScript)
}

func TestFormatStep(t *testing.T) {
	s, err := loadScript(writeScript(t, cliScript))
	must.NoError(t, err)
	res, err := trace.Replay(s)
	must.Error(t, err)
	must.Len(t, 3, res.Steps)

	must.Eq(t, "0 add t=2 l=3 head=2 queued=1 bitmap=0000000000000008", formatStep(res.Steps[0]))
	must.Eq(t, "1 peek -> 2 head=2 queued=1 bitmap=0000000000000008", formatStep(res.Steps[1]))

	last := formatStep(res.Steps[2])
	must.StrHasPrefix(t, "2 del t=2 l=1 head=2 queued=1", last)
	must.StrContains(t, last, " ERR ")
}

func TestListRuns(t *testing.T) {
	db := filepath.Join(t.TempDir(), "trace.db")
	s, err := loadScript(writeScript(t, cliScript))
	must.NoError(t, err)
	res, _ := trace.Replay(s)

	st, err := trace.OpenStore(db)
	must.NoError(t, err)
	id, err := st.Record(res)
	must.NoError(t, err)
	runs, err := st.Runs()
	must.NoError(t, err)
	must.NoError(t, st.Close())

	must.NoError(t, listRuns(db))

	line := formatRun(runs[0])
	fields := strings.Split(line, "\t")
	must.Len(t, 7, fields)
	must.Eq(t, []string{"1", "cli", "high", "4x4", "3 steps", "failed"}, fields[:6])
	must.Eq(t, int64(1), id)
	must.Eq(t, res.Final.DigestHex(), fields[6])
}

func TestListRunsBadPath(t *testing.T) {
	err := listRuns(filepath.Join(t.TempDir(), "no", "such", "dir", "trace.db"))
	must.Error(t, err)
}
