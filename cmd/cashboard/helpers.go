package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/b0ase/cashboard/canvas"
	"github.com/b0ase/cashboard/model"
)

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// flowOrder lists c's nodes sources first.
func flowOrder(c model.Canvas) []model.Node {
	ctrl := canvas.New(c)
	ids := ctrl.Order()
	out := make([]model.Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := ctrl.Node(id); ok {
			out = append(out, n)
		}
	}
	return out
}
