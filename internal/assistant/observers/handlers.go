package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
	"github.com/rs/zerolog"
)

// NewClassifierCallbacks aggregates the prompt and chat model observers into one callbacks.Handler.
// modelName prices token usage when the model does not report its own name.
func NewClassifierCallbacks(log zerolog.Logger, modelName string) einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		ChatModel(newModelHandler(log, modelName)).
		Prompt(newPromptHandler(log)).
		Handler()
}
