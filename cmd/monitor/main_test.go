package main

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwaitShutdown_LoopFirstWaitsForHTTP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loopErr := make(chan error, 1)
	httpErr := make(chan error)
	loopErr <- context.Canceled

	result := make(chan error, 1)
	go func() {
		result <- awaitShutdown(cancel, loopErr, httpErr, log.New(io.Discard, "", 0))
	}()

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context was not cancelled")
	}

	select {
	case err := <-result:
		t.Fatalf("returned before the HTTP server finished: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	httpErr <- nil
	select {
	case err := <-result:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("did not return after the HTTP server finished")
	}
}

func TestAwaitShutdown_HTTPFailureStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loopErr := make(chan error, 1)
	httpErr := make(chan error, 1)
	httpErr <- errors.New("address in use")

	go func() {
		<-ctx.Done()
		loopErr <- ctx.Err()
	}()

	err := awaitShutdown(cancel, loopErr, httpErr, log.New(io.Discard, "", 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http server: address in use")
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
