package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/chatpanel/internal/api"
	apierrors "github.com/diogo/chatpanel/internal/errors"
	"github.com/diogo/chatpanel/internal/models"
)

func TestSubmitHelloScenario(t *testing.T) {
	mock := &api.MockClient{Results: []api.MockResult{api.Success("hi")}}
	view := &recordingView{}
	c := New(mock, WithView(view), WithClock(fixedClock))

	outcome := c.Submit(context.Background(), "hello")

	assert.Equal(t, OutcomeReplied, outcome)
	assert.Equal(t, 1, mock.Calls())
	assert.Equal(t, []string{"hello"}, mock.Messages())
	assert.False(t, c.Loading())

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.NewUserMessage("hello", fixedClock()), msgs[0])
	assert.Equal(t, models.NewAssistantMessage("hi", fixedClock()), msgs[1])
	assert.Equal(t, "14:07", msgs[1].Time())

	assert.Equal(t, []string{
		"append:user", "clear", "loading:on",
		"append:assistant", "loading:off",
	}, view.events)
}

func TestSubmitTooLongScenario(t *testing.T) {
	mock := &api.MockClient{}
	c := New(mock, WithMaxLength(2000))

	outcome := c.Submit(context.Background(), strings.Repeat("a", 3000))

	assert.Equal(t, OutcomeRejected, outcome)
	assert.Zero(t, mock.Calls())
	assert.False(t, c.Loading())

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Error)
	assert.Equal(t, models.TextMaxLength, msgs[0].Content)
}

func TestSubmitOverLengthNeverSends(t *testing.T) {
	inputs := []string{
		strings.Repeat("x", 2001),
		"  " + strings.Repeat("y", 2500) + "\n",
		strings.Repeat("é", 2001),
		strings.Repeat("word ", 1000),
	}

	for _, input := range inputs {
		mock := &api.MockClient{}
		view := &recordingView{}
		c := New(mock, WithView(view))

		assert.Equal(t, OutcomeRejected, c.Submit(context.Background(), input))
		assert.Zero(t, mock.Calls())
		assert.Equal(t, 1, c.Len())
		assert.Equal(t, 1, countErrors(c.Messages()))
		assert.Equal(t, []string{"append:assistant"}, view.events, "no loading, no input clear")
	}
}

func TestSubmitLengthBoundary(t *testing.T) {
	mock := &api.MockClient{Results: []api.MockResult{api.Success("ok")}}
	c := New(mock, WithMaxLength(10))

	padded := "   " + strings.Repeat("z", 10) + "   "
	assert.Equal(t, OutcomeReplied, c.Submit(context.Background(), padded), "length is measured after trimming")
	assert.Equal(t, []string{strings.Repeat("z", 10)}, mock.Messages())
}

func TestSubmitEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t"} {
		mock := &api.MockClient{}
		c := New(mock)

		assert.Equal(t, OutcomeRejected, c.Submit(context.Background(), input))
		assert.Zero(t, mock.Calls())

		msgs := c.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, models.TextEmpty, msgs[0].Content)
	}
}

func TestUserMessageAppendedBeforeSendResolves(t *testing.T) {
	var c *Controller
	sender := senderFunc(func(ctx context.Context, message string) (*models.ChatResponse, error) {
		msgs := c.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, models.SenderUser, msgs[0].Sender)
		assert.Equal(t, "trimmed", msgs[0].Content)
		assert.True(t, c.Loading())
		return &models.ChatResponse{Status: models.StatusSuccess, Response: "done"}, nil
	})
	c = New(sender)

	assert.Equal(t, OutcomeReplied, c.Submit(context.Background(), "  trimmed  "))
	assert.False(t, c.Loading())
}

func TestSubmitWhileLoadingIsNoop(t *testing.T) {
	var c *Controller
	var nested Outcome
	sender := senderFunc(func(ctx context.Context, message string) (*models.ChatResponse, error) {
		before := c.Len()
		nested = c.Submit(ctx, "second")
		assert.Equal(t, before, c.Len(), "a rejected re-entry renders nothing")
		assert.True(t, c.Loading())

		_, outcome := c.Accept(strings.Repeat("x", 5000))
		assert.Equal(t, OutcomeIgnored, outcome, "validation is not even attempted while loading")
		return &models.ChatResponse{Status: models.StatusSuccess, Response: "first reply"}, nil
	})
	c = New(sender)

	assert.Equal(t, OutcomeReplied, c.Submit(context.Background(), "first"))
	assert.Equal(t, OutcomeIgnored, nested)
	assert.Equal(t, 2, c.Len())
}

func TestConcurrentSubmitsOnlyOneSends(t *testing.T) {
	mock := &api.MockClient{
		Results: []api.MockResult{api.Success("hi")},
		Block:   make(chan struct{}),
	}
	c := New(mock)

	first := make(chan Outcome)
	go func() { first <- c.Submit(context.Background(), "one") }()

	require.Eventually(t, c.Loading, time.Second, time.Millisecond)

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 10)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = c.Submit(context.Background(), "more")
		}(i)
	}
	wg.Wait()

	for _, o := range outcomes {
		assert.Equal(t, OutcomeIgnored, o)
	}

	close(mock.Block)
	assert.Equal(t, OutcomeReplied, <-first)
	assert.Equal(t, 1, mock.Calls())
	assert.False(t, c.Loading())
}

func TestRateLimitRendersOneErrorNoRetry(t *testing.T) {
	doer := &scriptedDoer{replies: []scriptedReply{
		{status: 429, body: `{"error":"Rate limit exceeded. Please try again later."}`},
	}}
	sleeper := &delayRecorder{}
	client, err := api.NewClient(api.WithHTTPClient(doer), api.WithSleeper(sleeper))
	require.NoError(t, err)

	c := New(client)
	assert.Equal(t, OutcomeFailed, c.Submit(context.Background(), "hello"))

	assert.Equal(t, 1, doer.Calls())
	assert.Empty(t, sleeper.delays)

	msgs := c.Messages()
	assert.Equal(t, 1, countErrors(msgs))
	assert.Equal(t, models.TextRateLimit, msgs[len(msgs)-1].Content)
	assert.False(t, c.Loading())
}

func TestTransientFailureThenSuccess(t *testing.T) {
	doer := &scriptedDoer{replies: []scriptedReply{
		{err: errors.New("connection reset by peer")},
		{status: 500, body: `{"error":"temporarily unavailable"}`},
		{status: 200, body: `{"status":"success","response":"finally"}`},
	}}
	sleeper := &delayRecorder{}
	client, err := api.NewClient(api.WithHTTPClient(doer), api.WithSleeper(sleeper))
	require.NoError(t, err)

	c := New(client)
	assert.Equal(t, OutcomeReplied, c.Submit(context.Background(), "hello"))

	msgs := c.Messages()
	assert.Equal(t, 1, countReplies(msgs))
	assert.Zero(t, countErrors(msgs))
	assert.Equal(t, "finally", msgs[len(msgs)-1].Content)
	assert.LessOrEqual(t, doer.Calls(), 1+models.DefaultMaxRetries)
}

func TestPersistentFailureExhaustsRetries(t *testing.T) {
	doer := &scriptedDoer{replies: []scriptedReply{
		{status: 503, body: `{"error":"down"}`},
	}}
	sleeper := &delayRecorder{}
	client, err := api.NewClient(
		api.WithHTTPClient(doer),
		api.WithSleeper(sleeper),
		api.WithRetryPolicy(api.RetryPolicy{MaxRetries: 3, BaseDelay: time.Second}),
	)
	require.NoError(t, err)

	c := New(client)
	assert.Equal(t, OutcomeFailed, c.Submit(context.Background(), "hello"))

	assert.Equal(t, 4, doer.Calls())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, sleeper.delays)

	msgs := c.Messages()
	assert.Equal(t, 1, countErrors(msgs))
	assert.Equal(t, "down", msgs[len(msgs)-1].Content)
	assert.False(t, c.Loading())
}

func TestNetworkFailureMessage(t *testing.T) {
	doer := &scriptedDoer{replies: []scriptedReply{{err: errors.New("no route to host")}}}
	client, err := api.NewClient(
		api.WithHTTPClient(doer),
		api.WithSleeper(&delayRecorder{}),
		api.WithRetryPolicy(api.RetryPolicy{MaxRetries: 1}),
	)
	require.NoError(t, err)

	c := New(client)
	assert.Equal(t, OutcomeFailed, c.Submit(context.Background(), "hello"))
	assert.Equal(t, 2, doer.Calls())

	msgs := c.Messages()
	assert.Equal(t, models.TextNetworkError, msgs[len(msgs)-1].Content)
}

func TestNonSuccessEnvelope(t *testing.T) {
	tests := []struct {
		name string
		resp *models.ChatResponse
		want string
	}{
		{"error detail", &models.ChatResponse{Status: "error", Error: "model overloaded"}, "model overloaded"},
		{"no detail", &models.ChatResponse{Status: "pending"}, models.TextServerError},
		{"nil response", nil, models.TextServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &api.MockClient{Results: []api.MockResult{{Response: tt.resp}}}
			c := New(mock)

			assert.Equal(t, OutcomeFailed, c.Submit(context.Background(), "hello"))
			msgs := c.Messages()
			require.Len(t, msgs, 2)
			assert.True(t, msgs[1].Error)
			assert.Equal(t, tt.want, msgs[1].Content)
		})
	}
}

func TestControllerReusableAfterFailure(t *testing.T) {
	mock := &api.MockClient{Results: []api.MockResult{
		api.Failure(apierrors.NewRateLimitError("/chat")),
		api.Success("back again"),
	}}
	c := New(mock)

	assert.Equal(t, OutcomeFailed, c.Submit(context.Background(), "one"))
	assert.Equal(t, OutcomeReplied, c.Submit(context.Background(), "two"))

	reply, ok := c.LastReply()
	assert.True(t, ok)
	assert.Equal(t, "back again", reply)
	assert.Equal(t, 4, c.Len())
}

func TestAcceptComplete(t *testing.T) {
	c := New(&api.MockClient{})

	text, outcome := c.Accept(" split ")
	assert.Equal(t, OutcomePending, outcome)
	assert.Equal(t, "split", text)
	assert.True(t, c.Loading())

	assert.Equal(t, OutcomeReplied, c.Complete(&models.ChatResponse{Status: models.StatusSuccess, Response: "ok"}, nil))
	assert.False(t, c.Loading())

	assert.Equal(t, OutcomeIgnored, c.Complete(nil, errors.New("stray")), "no pending submit")
	assert.Equal(t, 2, c.Len())
}

func TestMessagesIsACopy(t *testing.T) {
	c := New(&api.MockClient{Results: []api.MockResult{api.Success("hi")}})
	c.Submit(context.Background(), "hello")

	msgs := c.Messages()
	msgs[0].Content = "tampered"

	assert.Equal(t, "hello", c.Messages()[0].Content)
}

func TestLastReplySkipsErrors(t *testing.T) {
	c := New(&api.MockClient{Results: []api.MockResult{api.Failure(errors.New("x"))}})

	_, ok := c.LastReply()
	assert.False(t, ok)

	c.Submit(context.Background(), "hello")
	_, ok = c.LastReply()
	assert.False(t, ok)
}

func TestCheckLength(t *testing.T) {
	c := New(&api.MockClient{}, WithMaxLength(5))

	n, over := c.CheckLength("héllo")
	assert.Equal(t, 5, n)
	assert.False(t, over)

	n, over = c.CheckLength("héllo!")
	assert.Equal(t, 6, n)
	assert.True(t, over)
	assert.Equal(t, 5, c.MaxLength())
}

func TestSetView(t *testing.T) {
	view := &recordingView{}
	c := New(&api.MockClient{Results: []api.MockResult{api.Success("hi")}})
	c.SetView(view)

	c.Submit(context.Background(), "hello")
	require.Len(t, view.msgs, 2)
	assert.Equal(t, "hi", view.msgs[1].Content)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "ignored", OutcomeIgnored.String())
	assert.Equal(t, "rejected", OutcomeRejected.String())
	assert.Equal(t, "pending", OutcomePending.String())
	assert.Equal(t, "replied", OutcomeReplied.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
