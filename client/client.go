// Package client manages the persistent anonymous identity presented to the quiz backend.
package client

import (
	"crypto/rand"
	"fmt"

	"github.com/ivq-cli/ivq/filesystem"
	"github.com/ivq-cli/ivq/where"
	"github.com/metafates/gache"
)

// cacher persists the generated identity so every invocation reuses it.
var cacher = gache.New[string](&gache.Options{
	Path:       where.ClientID(),
	FileSystem: &filesystem.GacheFs{},
})

// ID returns the stable anonymous client identifier, generating and
// persisting a fresh one on first use.
func ID() (string, error) {
	id, _, err := cacher.Get()
	if err != nil {
		return "", err
	}

	if id != "" {
		return id, nil
	}

	id, err = generate()
	if err != nil {
		return "", err
	}

	if err = cacher.Set(id); err != nil {
		return "", err
	}

	return id, nil
}

func generate() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return fmt.Sprintf("client-%x", buf), nil
}
