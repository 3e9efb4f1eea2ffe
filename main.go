// ════════════════════════════════════════════════════════════════════════════════════════════════
// runq - Ready-Queue Trace Tool
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Main Entry Point
//
// Description:
//   Replays a JSON scheduling script against a fresh RunQueue, reports every
//   step, optionally dumps the final state and records the run in SQLite.
//
// Usage:
//   runq -script ops.json [-db runqueue_trace.db] [-name label] [-dump]
//   runq -list [-db runqueue_trace.db]
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"flag"
	"io"
	"os"

	"runq/constants"
	"runq/debug"
	"runq/trace"
	"runq/utils"
)

func main() {
	var (
		scriptPath = flag.String("script", "", "JSON script to replay (- for stdin)")
		dbPath     = flag.String("db", constants.DefaultTraceDB, "trace database; empty disables recording")
		name       = flag.String("name", "", "run label (defaults to the script's name)")
		dump       = flag.Bool("dump", false, "print the final queue state as JSON on stdout")
		list       = flag.Bool("list", false, "list recorded runs and exit")
	)
	flag.Parse()

	if *list {
		if err := listRuns(*dbPath); err != nil {
			debug.DropError("LIST", err)
			os.Exit(1)
		}
		return
	}
	if *scriptPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	script, err := loadScript(*scriptPath)
	if err != nil {
		debug.DropError("SCRIPT", err)
		os.Exit(1)
	}
	if *name != "" {
		script.Name = *name
	}

	debug.DropMessage("REPLAY", script.Name+": "+utils.Itoa(len(script.Ops))+" ops, "+
		utils.Itoa(script.Levels)+" levels, "+utils.Itoa(script.Threads)+" threads")

	res, replayErr := trace.Replay(script)
	if res == nil {
		debug.DropError("REPLAY", replayErr)
		os.Exit(1)
	}
	for _, st := range res.Steps {
		reportStep(st)
	}

	if *dump {
		data, err := res.Final.JSON()
		if err != nil {
			debug.DropError("DUMP", err)
			os.Exit(1)
		}
		utils.PrintInfo(utils.B2s(data) + "\n")
	}

	if *dbPath != "" {
		store, err := trace.OpenStore(*dbPath)
		if err != nil {
			debug.DropError("STORE", err)
			os.Exit(1)
		}
		id, err := store.Record(res)
		store.Close()
		if err != nil {
			debug.DropError("STORE", err)
			os.Exit(1)
		}
		debug.DropMessage("STORED", "run "+utils.Itoa(int(id))+" in "+*dbPath)
	}

	if replayErr != nil {
		debug.DropError("VIOLATION", replayErr)
		os.Exit(1)
	}
	debug.DropMessage("DONE", "final digest "+res.Final.DigestHex())
}

func loadScript(path string) (*trace.Script, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return trace.ParseScript(data)
}

func reportStep(st trace.Step) {
	debug.DropMessage("STEP", formatStep(st))
}

func formatStep(st trace.Step) string {
	msg := utils.Itoa(st.Index) + " " + st.Op
	if st.Thread >= 0 {
		msg += " t=" + utils.Itoa(st.Thread)
	}
	if st.Level >= 0 {
		msg += " l=" + utils.Itoa(st.Level)
	}
	if st.Result >= 0 {
		msg += " -> " + utils.Itoa(st.Result)
	}
	msg += " head=" + utils.Itoa(st.Head) + " queued=" + utils.Itoa(st.Queued) + " bitmap=" + st.Bitmap
	if st.Err != "" {
		msg += " ERR " + st.Err
	}
	return msg
}

func listRuns(path string) error {
	store, err := trace.OpenStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs()
	if err != nil {
		return err
	}
	for _, r := range runs {
		utils.PrintInfo(formatRun(r) + "\n")
	}
	return nil
}

func formatRun(r trace.RunInfo) string {
	status := "ok"
	if r.Failed {
		status = "failed"
	}
	return utils.Itoa(int(r.ID)) + "\t" + r.Name + "\t" + r.Order + "\t" +
		utils.Itoa(r.Levels) + "x" + utils.Itoa(r.Threads) + "\t" +
		utils.Itoa(r.Steps) + " steps\t" + status + "\t" + r.Digest
}
