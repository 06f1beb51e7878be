package safe_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/shopmate-ai/shopmate/pkg/utils/safe"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

type countingCloser struct{ calls int }

func (c *countingCloser) Close() error {
	c.calls++
	return errors.New("already closed")
}

func TestWrite(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	gt.Bool(t, safe.Write(ctx, &buf, []byte("data"))).True()
	gt.Value(t, buf.String()).Equal("data")

	gt.Bool(t, safe.Write(ctx, failingWriter{}, []byte("data"))).False()
	gt.Bool(t, safe.Write(ctx, nil, []byte("data"))).False()
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	safe.Close(ctx, nil)

	c := &countingCloser{}
	safe.Close(ctx, c)
	gt.Value(t, c.calls).Equal(1)

	called := false
	safe.CloseFunc(ctx, "client", func() error {
		called = true
		return nil
	})
	gt.Bool(t, called).True()
}
