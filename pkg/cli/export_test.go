package cli

import (
	"context"
	"io"
)

func RunWithWriter(ctx context.Context, args []string, w io.Writer) error {
	return run(ctx, args, "test", w)
}

var GetIndexConfig = getIndexConfig
