package mockagent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikramwani/agentalign/core"
)

func TestClientDefaultResponse(t *testing.T) {
	client := NewClient()
	resp, err := client.GenerateResponse(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "mock-model", resp.Model)
	assert.Equal(t, 1, client.CallCount)
}

func TestClientQueuedResponsesInOrder(t *testing.T) {
	client := NewClient()
	client.SetResponses("one", "two")

	resp1, err := client.GenerateResponse(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.Equal(t, "one", resp1.Content)

	resp2, err := client.GenerateResponse(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.Equal(t, "two", resp2.Content)

	_, err = client.GenerateResponse(context.Background(), "p", nil)
	assert.Error(t, err)
}

func TestClientModelFromOptions(t *testing.T) {
	client := NewClient()
	resp, err := client.GenerateResponse(context.Background(), "p", &core.AIOptions{Model: "custom"})
	require.NoError(t, err)
	assert.Equal(t, "custom", resp.Model)
}

func TestClientSetError(t *testing.T) {
	client := NewClient()
	client.SetError(errors.New("boom"))

	_, err := client.GenerateResponse(context.Background(), "p", nil)
	assert.EqualError(t, err, "boom")
}

func TestClientContextCancellation(t *testing.T) {
	client := NewClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GenerateResponse(ctx, "p", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientReset(t *testing.T) {
	client := NewClient()
	client.SetError(errors.New("boom"))
	client.GenerateResponse(context.Background(), "p", nil)

	client.Reset()

	assert.Equal(t, 0, client.CallCount)
	assert.Equal(t, 0, client.ResponseIndex)
	assert.Empty(t, client.LastPrompt)
	assert.Nil(t, client.LastOptions)
	assert.Nil(t, client.Err)
}
