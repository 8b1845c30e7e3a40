// Package rulepack embeds the default platform registry and rule documents.
package rulepack

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed rules
var embedded embed.FS

// FS returns the embedded rule pack rooted at its registry.
func FS() fs.FS {
	sub, err := fs.Sub(embedded, "rules")
	if err != nil {
		panic(err)
	}
	return sub
}

// Open returns the rule pack in dir, or the embedded pack when dir is empty.
func Open(dir string) fs.FS {
	if dir == "" {
		return FS()
	}
	return os.DirFS(dir)
}
