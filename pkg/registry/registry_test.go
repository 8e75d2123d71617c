package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/lookout/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Execute(t *testing.T) {
	reg := NewRegistry()
	reg.Register(domain.Tool{Name: "echo"}, func(ctx context.Context, args map[string]any) (any, error) {
		return args["text"], nil
	})

	out, err := reg.Execute(context.Background(), "echo", map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
}

func TestRegistry_UnknownTool(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Execute(context.Background(), "missing", nil)
	assert.True(t, errors.Is(err, domain.ErrToolNotFound))
}

func TestRegistry_Definitions(t *testing.T) {
	reg := NewRegistry()
	noop := func(context.Context, map[string]any) (any, error) { return nil, nil }
	reg.Register(domain.Tool{Name: "zeta"}, noop)
	reg.Register(domain.Tool{Name: "alpha", Description: "first"}, noop)
	reg.Register(domain.Tool{Name: "alpha", Description: "replaced"}, noop)

	defs := reg.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "alpha", defs[0].Name)
	assert.Equal(t, "replaced", defs[0].Description)
	assert.Equal(t, "zeta", defs[1].Name)
	assert.True(t, reg.Has("zeta"))
	assert.Equal(t, 2, reg.Len())
}
