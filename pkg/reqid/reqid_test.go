package reqid_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/darzi-app/darzi/pkg/logger"
	"github.com/darzi-app/darzi/pkg/reqid"
)

func TestStart_AssignsIDOnce(t *testing.T) {
	ctx := reqid.Start(context.Background())
	id := reqid.FromCtx(ctx)
	assert.NotEmpty(t, id)

	again := reqid.Start(ctx)
	assert.Equal(t, id, reqid.FromCtx(again))
}

func TestStart_InjectsTaggedLogger(t *testing.T) {
	ctx := reqid.Start(context.Background())
	assert.NotSame(t, logger.L, logger.WithCtx(ctx))
	assert.Same(t, logger.L, logger.WithCtx(context.Background()))
}

func TestFromCtx_Empty(t *testing.T) {
	assert.Equal(t, "", reqid.FromCtx(context.Background()))
}
