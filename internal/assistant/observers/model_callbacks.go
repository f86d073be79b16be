package observers

import (
	"context"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
	"github.com/rs/zerolog"

	amodel "github.com/Chative-core-poc-v1/voice/internal/assistant/model"
	"github.com/Chative-core-poc-v1/voice/internal/telemetry"
)

const maxLoggedContent = 512

// newModelHandler logs transcript, raw reply, token usage and cost around classifier model calls.
func newModelHandler(log zerolog.Logger, modelName string) *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			ev := log.Debug().Str("node", info.Name).Str("type", info.Type)
			if input != nil {
				ev = ev.Int("messages", len(input.Messages))
				if um := lastUserContent(input.Messages); um != "" {
					ev = ev.Int("prompt_len", len(um))
				}
			}
			ev.Msg("classifier model start")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			ev := log.Debug().Str("node", info.Name).Str("type", info.Type)
			if output != nil {
				if output.Message != nil {
					ev = ev.Str("raw", clip(strings.TrimSpace(output.Message.Content)))
				}
				if u := output.TokenUsage; u != nil {
					name := modelName
					if output.Config != nil && output.Config.Model != "" {
						name = output.Config.Model
					}
					_, _, cost := amodel.ComputeCost(u.PromptTokens, u.CompletionTokens, amodel.ResolvePricing(name))
					telemetry.ClassifierTokensTotal.WithLabelValues("prompt").Add(float64(u.PromptTokens))
					telemetry.ClassifierTokensTotal.WithLabelValues("completion").Add(float64(u.CompletionTokens))
					telemetry.ClassifierCostUSD.Add(cost)
					ev = ev.Int("prompt_tokens", u.PromptTokens).
						Int("completion_tokens", u.CompletionTokens).
						Int("total_tokens", u.TotalTokens).
						Float64("cost_usd", cost)
				}
			}
			ev.Msg("classifier model end")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			log.Warn().Err(err).Str("node", info.Name).Str("type", info.Type).Msg("classifier model error")
			return ctx
		},
	}
}

func lastUserContent(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil {
			continue
		}
		if m.Role == schema.User {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}

func clip(s string) string {
	if len(s) <= maxLoggedContent {
		return s
	}
	return s[:maxLoggedContent] + "…"
}
