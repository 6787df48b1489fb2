package pathnote_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/pathnote"
)

// Example_basic saves a note to a directory-backed store and reads it back.
func Example_basic() {
	// Create a temporary directory for the example
	tmpDir, err := os.MkdirTemp("", "pathnote-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	ctx := context.Background()
	svc, err := pathnote.New(ctx, tmpDir, pathnote.WithSecret("my secret", "my iv seed"))
	if err != nil {
		log.Fatal(err)
	}
	defer svc.Close()

	if _, err := svc.Save(ctx, "notes/todo", "Buy milk"); err != nil {
		log.Fatal(err)
	}

	note, err := svc.Load(ctx, "/notes//todo/")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s: %s\n", note.Path, note.Content)
	// Output:
	// notes/todo: Buy milk
}

// Example_delete shows that saving empty content removes a note.
func Example_delete() {
	ctx := context.Background()
	svc, err := pathnote.New(ctx, "",
		pathnote.WithAdapter(pathnote.AdapterMemory),
		pathnote.WithSecret("my secret", "my iv seed"),
	)
	if err != nil {
		log.Fatal(err)
	}

	_, _ = svc.Save(ctx, "scratch", "temporary")
	_, _ = svc.Save(ctx, "scratch", "")

	note, err := svc.Load(ctx, "scratch")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("content=%q\n", note.Content)
	// Output:
	// content=""
}

// ExampleService_LookupKey prints the identity a note is stored under. With
// the default scheme it is the SHA-256 of the normalised path.
func ExampleService_LookupKey() {
	svc, err := pathnote.New(context.Background(), "",
		pathnote.WithAdapter(pathnote.AdapterMemory),
		pathnote.WithSecret("my secret", "my iv seed"),
	)
	if err != nil {
		log.Fatal(err)
	}

	key, err := svc.LookupKey("notes/todo")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(key)
	// Output:
	// 5212df5ac6729a8e7f868f60d2e7efd24a48673430930ad3514bc70ab7e20398
}
