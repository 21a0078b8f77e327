package draftlib

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
)

// Transform is the opaque File -> File step applied to every upload task
// before transmission. The queue treats it as a black box: any error it
// returns fails the task with a "compression failed" message and the
// batch moves on.
type Transform interface {
	Apply(ctx context.Context, f File) (File, error)
}

// TransformFunc adapts a plain function to the Transform interface.
type TransformFunc func(ctx context.Context, f File) (File, error)

// Apply calls fn.
func (fn TransformFunc) Apply(ctx context.Context, f File) (File, error) {
	return fn(ctx, f)
}

// NopTransform passes payloads through untouched.
func NopTransform() Transform {
	return TransformFunc(func(ctx context.Context, f File) (File, error) {
		return f, nil
	})
}

// GzipTransform compresses payloads with gzip at the given level, keeping
// the original name and declared MIME type (the endpoint announces the
// encoding out of band). Level 0 means gzip.DefaultCompression.
type GzipTransform struct {
	Level int
}

// Apply compresses the payload into an in-memory File.
func (g GzipTransform) Apply(ctx context.Context, f File) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, err
	}
	data, err := f.ReadAll()
	if err != nil {
		return File{}, fmt.Errorf("read payload: %w", err)
	}
	level := g.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return File{}, err
	}
	if _, err := zw.Write(data); err != nil {
		return File{}, err
	}
	if err := zw.Close(); err != nil {
		return File{}, err
	}
	return NewMemFile(f.Name, f.MIME, buf.Bytes())
}
