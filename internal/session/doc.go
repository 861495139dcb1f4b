// Package session keeps the three replicas of a browser session consistent.
//
// A session is the pairing of an Identity and a Credential. It lives in three
// places at once:
//
//   - Store: the in-memory copy owned by the current request's coordinator
//   - Storage: the durable per-browser key-value store (keys "token" and "user")
//   - CookieJar: the "token" and "userRole" cookies read by the edge gate
//
// Replicator.Sync is the only writer to all three. Login, logout, hydration
// and the API client's unauthorized hook all go through it. Its mutex only
// orders writes made while handling one request, since every request builds
// its own Replicator. Two concurrent requests from the same browser are not
// ordered against each other: the scs commit that lands last wins, and the
// next request's hydration repairs the cookies from it.
//
// # Usage
//
//	store := session.NewStore()
//	repl := session.NewReplicator(store, storage, session.HTTPCookies{W: w})
//	err := repl.Sync(ctx, identity, credential) // login
//	err = repl.Sync(ctx, nil, "")               // logout
package session
