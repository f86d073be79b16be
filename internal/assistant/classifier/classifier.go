package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"google.golang.org/genai"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
	"github.com/Chative-core-poc-v1/voice/internal/assistant/observers"
	"github.com/Chative-core-poc-v1/voice/internal/assistant/prompts"
	errx "github.com/Chative-core-poc-v1/voice/internal/core/error"
	"github.com/Chative-core-poc-v1/voice/internal/telemetry"
	logx "github.com/Chative-core-poc-v1/voice/pkg/logger"
)

const defaultTimeout = 15 * time.Second

var errNoRemote = errors.New("no remote classifier configured")

// Classifier turns transcripts into intent records. Classify never fails:
// remote errors and malformed replies are answered by the keyword fallback.
type Classifier struct {
	runnable  compose.Runnable[map[string]any, *schema.Message]
	breaker   *gobreaker.CircuitBreaker
	callbacks einocb.Handler
	timeout   time.Duration
	log       zerolog.Logger
}

// New compiles the prompt -> chat model chain around cm.
// A nil cm gives a classifier that always answers from the fallback.
func New(ctx context.Context, cm einomodel.BaseChatModel, cfg model.ClassifierConfig) (*Classifier, error) {
	c := &Classifier{
		timeout: cfg.Timeout,
		log:     logx.With("classifier"),
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if cm == nil {
		c.log.Warn().Msg("no chat model configured, classifier runs on fallback only")
		return c, nil
	}

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.
		AppendChatTemplate(prompts.NewClassifierTemplate(), compose.WithNodeName("classifier_prompt")).
		AppendChatModel(cm, compose.WithNodeName("classifier_model"))

	runnable, err := chain.Compile(ctx, compose.WithGraphName("intent_classifier"))
	if err != nil {
		return nil, fmt.Errorf("compile classifier chain: %w", err)
	}

	c.runnable = runnable
	c.breaker = newBreaker(cfg.Breaker, c.log)
	c.callbacks = observers.NewClassifierCallbacks(c.log, cfg.Model)
	return c, nil
}

// Classify returns the remote classification when it is available and valid,
// and the deterministic fallback otherwise.
func (c *Classifier) Classify(ctx context.Context, transcript string, sc model.SessionContext) model.Classification {
	start := time.Now()
	rec, err := c.remote(ctx, transcript, sc)
	if err == nil {
		return model.Classification{Record: rec, Source: model.SourceRemote, Latency: time.Since(start)}
	}

	c.logFailure(err)
	rec = Fallback(transcript, sc)
	if strings.TrimSpace(rec.UserInput) == "" {
		// blank transcripts still need a userInput to pass Validate
		rec.UserInput = rec.Response
	}
	return model.Classification{
		Record:  rec,
		Source:  model.SourceFallback,
		Reason:  errx.KindOf(err),
		Latency: time.Since(start),
	}
}

func (c *Classifier) remote(ctx context.Context, transcript string, sc model.SessionContext) (model.IntentRecord, error) {
	if c.runnable == nil {
		return model.IntentRecord{}, errx.Unavailable(errNoRemote)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.runnable.Invoke(ctx, prompts.ClassifierVariables(transcript, sc), compose.WithCallbacks(c.callbacks))
	})
	if err != nil {
		return model.IntentRecord{}, errx.Unavailable(err)
	}

	msg, _ := out.(*schema.Message)
	if msg == nil {
		return model.IntentRecord{}, errx.Malformed(errors.New("empty model reply"))
	}
	return ParseIntentRecord(msg.Content)
}

func (c *Classifier) logFailure(err error) {
	if errors.Is(err, errNoRemote) {
		c.log.Debug().Msg("remote classifier disabled, using fallback")
		return
	}
	ev := c.log.Warn().Err(err).Str("reason", string(errx.KindOf(err)))
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		ev.Msg("classifier breaker open, using fallback")
	case errors.Is(err, context.DeadlineExceeded):
		ev.Dur("timeout", c.timeout).Msg("classifier request timed out, using fallback")
	case errors.Is(err, errx.ErrClassifierMalformed):
		ev.Msg("classifier reply malformed, using fallback")
	default:
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			ev.Int("status", apiErr.Code).Msg(statusHint(apiErr.Code))
			return
		}
		ev.Msg("classifier request failed, using fallback")
	}
}

func statusHint(code int) string {
	switch code {
	case 400:
		return "classifier bad request, invalid request format"
	case 403:
		return "classifier forbidden, invalid API key or quota exceeded"
	case 404:
		return "classifier model not found, check CLASSIFIER_MODEL"
	case 429:
		return "classifier rate limit exceeded"
	case 500:
		return "classifier upstream internal error"
	default:
		return "classifier HTTP error"
	}
}

func newBreaker(cfg model.BreakerConfig, log zerolog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "intent-classifier",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			telemetry.BreakerState.Set(float64(to))
		},
	})
}
