// Package update decides when to look for a newer dialpad build and fetches
// the update descriptor.
//
// Throttle runs on every dialer activation and asks the engine for a check at
// most once per configured interval. The engine runs Checker in the
// background and posts a Notice when the descriptor advertises a newer
// version than the running one:
//
//	throttle := update.NewThrottle(preferences, core, version)
//	throttle.MaybeCheck(time.Now())
//
//	info, err := update.NewChecker().Check(ctx, checkURL, version)
//	if err == nil && info != nil && info.UpdateAvailable {
//	    mailbox.Post(info.Notice())
//	}
package update
