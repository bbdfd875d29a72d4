package shared

// Confirm reports whether a destructive command may proceed.
//
// The command is allowed when forced, or when the user re-typed the app name via --confirm.
func Confirm(app, supplied string, force bool) bool {
	if force {
		return true
	}
	return app != "" && supplied == app
}
