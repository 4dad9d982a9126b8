package chain

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wfmodel "edu-content-ai-api/internal/workflow/model"
	"edu-content-ai-api/internal/workflow/node"
	"edu-content-ai-api/internal/workflow/prompt"
	apperrors "edu-content-ai-api/pkg/errors"
)

// stubInvoker 按脚本依次返回预置结果
type stubInvoker struct {
	outputs []string
	errs    []error
	calls   int
}

func (s *stubInvoker) Invoke(ctx context.Context, messages []*schema.Message, opts wfmodel.GenerateOptions) (*wfmodel.AIResult, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return &wfmodel.AIResult{
		Content:          s.outputs[i],
		Model:            "gpt-4o-mini",
		PromptTokens:     100,
		CompletionTokens: 50,
		CostUSD:          0.01,
	}, nil
}

func (s *stubInvoker) HealthCheck(ctx context.Context) bool { return true }

type testDoc struct {
	Title string `json:"title"`
}

func parseTestDoc(jsonText string) error {
	var doc testDoc
	if err := node.DecodeStrict(jsonText, &doc); err != nil {
		return err
	}
	if doc.Title == "" {
		return errors.New("title is required")
	}
	return nil
}

func userMessages() []*schema.Message {
	return []*schema.Message{schema.UserMessage("generate the document")}
}

func TestReconcileValidFirstOutputTakesOneCall(t *testing.T) {
	invoker := &stubInvoker{outputs: []string{`{"title":"ok"}`}}
	r := NewReconciler(invoker, prompt.NewRegistry())

	result, state, err := r.Reconcile(context.Background(), userMessages(), wfmodel.GenerateOptions{}, `{"title":"string"}`, parseTestDoc)

	require.NoError(t, err)
	assert.Equal(t, StateValidated, state)
	assert.Equal(t, 1, invoker.calls)
	assert.Equal(t, 100, result.PromptTokens)
	assert.JSONEq(t, `{"title":"ok"}`, result.Content)
}

func TestReconcileRecoversWithExactlyOneCorrection(t *testing.T) {
	invoker := &stubInvoker{outputs: []string{
		"desculpe, não consegui gerar JSON válido",
		"```json\n{\"title\":\"recuperado\"}\n```",
	}}
	r := NewReconciler(invoker, prompt.NewRegistry())

	result, state, err := r.Reconcile(context.Background(), userMessages(), wfmodel.GenerateOptions{}, `{"title":"string"}`, parseTestDoc)

	require.NoError(t, err)
	assert.Equal(t, StateValidated, state)
	assert.Equal(t, 2, invoker.calls)
	// 两次调用的用量合并计费
	assert.Equal(t, 200, result.PromptTokens)
	assert.Equal(t, 100, result.CompletionTokens)
	assert.InDelta(t, 0.02, result.CostUSD, 1e-9)
	assert.JSONEq(t, `{"title":"recuperado"}`, result.Content)
}

func TestReconcileFailsAfterSecondUnparsableOutput(t *testing.T) {
	invoker := &stubInvoker{outputs: []string{
		"primeira saída inválida",
		"segunda saída ainda inválida",
	}}
	r := NewReconciler(invoker, prompt.NewRegistry())

	result, state, err := r.Reconcile(context.Background(), userMessages(), wfmodel.GenerateOptions{}, `{"title":"string"}`, parseTestDoc)

	require.NoError(t, err)
	assert.Equal(t, StateFailed, state)
	// 恰好两次调用，重试预算固定
	assert.Equal(t, 2, invoker.calls)
	assert.NotNil(t, result)
}

func TestReconcileNeverExceedsTwoCalls(t *testing.T) {
	invoker := &stubInvoker{outputs: []string{"x", "y", `{"title":"nunca chega aqui"}`}}
	r := NewReconciler(invoker, prompt.NewRegistry())

	_, state, err := r.Reconcile(context.Background(), userMessages(), wfmodel.GenerateOptions{}, "{}", parseTestDoc)

	require.NoError(t, err)
	assert.Equal(t, StateFailed, state)
	assert.Equal(t, 2, invoker.calls)
}

func TestReconcilePropagatesProviderError(t *testing.T) {
	providerErr := apperrors.New(apperrors.CodeProviderUnavailable, "AI provider unavailable")
	invoker := &stubInvoker{outputs: []string{""}, errs: []error{providerErr}}
	r := NewReconciler(invoker, prompt.NewRegistry())

	_, state, err := r.Reconcile(context.Background(), userMessages(), wfmodel.GenerateOptions{}, "{}", parseTestDoc)

	require.Error(t, err)
	assert.Equal(t, StateFailed, state)
	assert.Equal(t, 1, invoker.calls)
}

func TestReconcileCorrectionCallProviderError(t *testing.T) {
	providerErr := apperrors.New(apperrors.CodeProviderUnavailable, "AI provider unavailable")
	invoker := &stubInvoker{
		outputs: []string{"saída inválida", ""},
		errs:    []error{nil, providerErr},
	}
	r := NewReconciler(invoker, prompt.NewRegistry())

	_, state, err := r.Reconcile(context.Background(), userMessages(), wfmodel.GenerateOptions{}, "{}", parseTestDoc)

	require.Error(t, err)
	assert.Equal(t, StateCorrectionSent, state)
	assert.Equal(t, 2, invoker.calls)
}

func TestReconcileExtractsJSONFromProse(t *testing.T) {
	invoker := &stubInvoker{outputs: []string{
		"Claro! Aqui está o resultado:\n{\"title\":\"embutido\"}\nEspero que ajude.",
	}}
	r := NewReconciler(invoker, prompt.NewRegistry())

	result, state, err := r.Reconcile(context.Background(), userMessages(), wfmodel.GenerateOptions{}, "{}", parseTestDoc)

	require.NoError(t, err)
	assert.Equal(t, StateValidated, state)

	var doc testDoc
	require.NoError(t, json.Unmarshal([]byte(result.Content), &doc))
	assert.Equal(t, "embutido", doc.Title)
}
