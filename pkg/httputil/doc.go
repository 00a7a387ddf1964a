// Package httputil holds the retry policy used by the GitHub API client.
//
// A [Policy] re-runs an operation while it reports a transient failure
// through [Transient]. The attempt index is passed to the operation so later
// attempts can change how they send, for example dropping credentials after
// a transport failure:
//
//	err := httputil.Once.Do(ctx, func(attempt int) error {
//	    resp, err := send(attempt == 0)
//	    if err != nil {
//	        return httputil.Transient(err)
//	    }
//	    return nil
//	})
package httputil
