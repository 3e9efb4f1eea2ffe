// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go - Cold-path diagnostic logging (no formatting)
//
// Purpose:
//   - Logs infrequent scheduler events without fmt and without touching the
//     ready-queue hot path.
//   - Used for handoff overflow, consumer lifecycle and trace tooling output.
//
// Notes:
//   - Messages are concatenated and written to stderr in one call.
//   - Never invoked from runqueue operations.
//
// ⚠️ Never invoke in hot loops: use only in failure diagnostics.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import "runq/utils"

// DropError logs "<prefix>: <err>" or just "<prefix>" when err is nil.
//
//go:nosplit
//go:inline
//go:registerparams
func DropError(prefix string, err error) {
	if err != nil {
		utils.PrintWarning(prefix + ": " + err.Error() + "\n")
		return
	}
	utils.PrintWarning(prefix + "\n")
}

// DropMessage logs "<prefix>: <message>".
//
//go:nosplit
//go:inline
//go:registerparams
func DropMessage(prefix, message string) {
	utils.PrintWarning(prefix + ": " + message + "\n")
}
