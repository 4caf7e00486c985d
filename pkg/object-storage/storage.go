// Package objectstorage keeps uploaded document files outside the relational store.
package objectstorage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidKey     = errors.New("invalid object key")
)

type Object struct {
	Body        io.ReadCloser
	Size        int64 // -1 when unknown
	ContentType string
}

type Storage interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// CleanKey normalizes key to a relative slash path and refuses keys that climb out of the root.
func CleanKey(key string) (string, error) {
	key = strings.ReplaceAll(key, "\\", "/")
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." {
			return "", ErrInvalidKey
		}
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+key), "/")
	if cleaned == "" {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

// DocumentKey is where the file of a document lives.
func DocumentKey(userID, knowledgeBaseID, documentID, name string) string {
	return path.Join("documents", userID, knowledgeBaseID, documentID, path.Base("/"+name))
}
