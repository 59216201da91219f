package feed_test

import (
	"context"
	"testing"

	"github.com/matt-steen/todo-notes/pkg/feed"
	"github.com/stretchr/testify/assert"
)

func TestSubscribeReceivesInitial(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	var f feed.Feed[int]

	ch := f.Subscribe(context.Background(), 7)

	assert.Equal(7, <-ch)
	assert.Equal(1, f.Len())
}

func TestPublishKeepsOnlyLatest(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	var f feed.Feed[int]

	ch := f.Subscribe(context.Background(), 0)

	f.Publish(1)
	f.Publish(2)
	f.Publish(3)

	assert.Equal(3, <-ch)

	select {
	case v := <-ch:
		t.Fatalf("unexpected backlog value %d", v)
	default:
	}
}

func TestCancelClosesChannel(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	var f feed.Feed[string]

	ctx, cancel := context.WithCancel(context.Background())
	ch := f.Subscribe(ctx, "a")

	cancel()

	<-ch

	_, ok := <-ch
	assert.False(ok)
	assert.Equal(0, f.Len())
}

func TestClose(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	var f feed.Feed[int]

	ch := f.Subscribe(context.Background(), 1)
	f.Close()

	<-ch

	_, ok := <-ch
	assert.False(ok)

	late := f.Subscribe(context.Background(), 2)

	_, ok = <-late
	assert.False(ok)
}
