// Package pathnote is the composition root of a path-addressed, encrypted
// note store.
//
// A caller names a note by a logical path (for example "notes/todo") and
// hands over free text. The text is encrypted with AES-CBC under a key derived
// from a shared secret and stored in a record whose identity is a one-way hash
// of the path. Neither the path nor the plaintext ever reach the store.
//
// The core (pkg/core) knows nothing about persistence; record stores are
// adapters behind core.RecordStore:
//
//   - fs: one JSON file per record, sharded by lookup key, watchable.
//   - bolt: a single bbolt database file.
//   - badger: a badger LSM directory, or purely in memory.
//   - mongo: a MongoDB collection, connected lazily.
//   - memory: a map, for tests.
//
// Usage:
//
//	svc, err := pathnote.New(ctx, "./data",
//		pathnote.WithSecret(secret, ivSeed),
//		pathnote.WithLogger(logger),
//	)
//
//	note, err := svc.Save(ctx, "notes/todo", "Buy milk")
//	note, err = svc.Load(ctx, "notes/todo")
//
//	// Empty content deletes the note.
//	_, err = svc.Save(ctx, "notes/todo", "")
package pathnote
