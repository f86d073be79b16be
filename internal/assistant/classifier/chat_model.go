package classifier

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/getkin/kin-openapi/openapi3"
	"google.golang.org/genai"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
	logx "github.com/Chative-core-poc-v1/voice/pkg/logger"
)

// ChatModelConfig holds the configuration for the Gemini classifier model.
type ChatModelConfig struct {
	APIKey  string
	BaseURL string
	Model   *model.ClassifierConfig
}

var safetyCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

// NewChatModel creates the Gemini chat model backing the remote classifier.
func NewChatModel(ctx context.Context, config ChatModelConfig) (*gemini.ChatModel, error) {
	if config.Model == nil {
		return nil, fmt.Errorf("classifier model config is nil")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	cfg := config.Model
	chatModel, err := gemini.NewChatModel(ctx, geminiConfig(client, cfg))
	if err != nil {
		logx.Error().Err(err).Msg("Error creating classifier model")
		return nil, fmt.Errorf("error creating classifier model: %w", err)
	}

	logx.Debug().Str("model", cfg.Model).Msg("classifier chat model ready")
	return chatModel, nil
}

// geminiConfig requests JSON output shaped like an intent record.
func geminiConfig(client *genai.Client, cfg *model.ClassifierConfig) *gemini.Config {
	safety := make([]*genai.SafetySetting, 0, len(safetyCategories))
	for _, c := range safetyCategories {
		safety = append(safety, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}

	return &gemini.Config{
		Client:         client,
		Model:          cfg.Model,
		Temperature:    &cfg.Temperature,
		MaxTokens:      &cfg.MaxTokens,
		TopP:           &cfg.TopP,
		TopK:           &cfg.TopK,
		ResponseSchema: intentRecordSchema(),
		SafetySettings: safety,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(cfg.ThinkingBudget),
		},
	}
}

func intentRecordSchema() *openapi3.Schema {
	types := model.IntentTypes()
	enum := make([]interface{}, 0, len(types))
	for _, t := range types {
		enum = append(enum, t.String())
	}

	s := openapi3.NewObjectSchema().
		WithProperty("type", openapi3.NewStringSchema().WithEnum(enum...)).
		WithProperty("userInput", openapi3.NewStringSchema()).
		WithProperty("response", openapi3.NewStringSchema())
	s.Required = []string{"type", "userInput", "response"}
	return s
}
