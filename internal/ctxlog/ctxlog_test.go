package ctxlog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-kfp/internal/ctxlog"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	assert.Same(t, slog.Default(), ctxlog.FromContext(context.Background()))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := ctxlog.WithLogger(context.Background(), logger)
	assert.Same(t, logger, ctxlog.FromContext(ctx))
}

func TestNew(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		level, format string
		wantErr       bool
		contains      string
	}{
		"default text": {contains: "msg=hello"},
		"json":         {format: "json", contains: `"msg":"hello"`},
		"debug":        {level: "debug", contains: "level=DEBUG"},
		"bad level":    {level: "loud", wantErr: true},
		"bad format":   {format: "xml", wantErr: true},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			logger, err := ctxlog.New(&buf, tc.level, tc.format)
			if tc.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			logger.Debug("hello")
			logger.Info("hello")
			assert.Contains(t, buf.String(), tc.contains)
		})
	}
}
