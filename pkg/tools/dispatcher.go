package tools

import (
	"context"

	"github.com/sirupsen/logrus"
)

// ToolFunc defines a function executed asynchronously.
type ToolFunc func(ctx context.Context) error

// Dispatch runs the provided tool in a separate goroutine. Fire-and-forget;
// a failure is logged under the tool's name.
func Dispatch(ctx context.Context, name string, fn ToolFunc) {
	go func() {
		if err := fn(ctx); err != nil {
			logrus.WithError(err).WithField("tool", name).Warn("background task failed")
		}
	}()
}
