package agent

import (
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/chatrelay/chatrelay/config"
	"github.com/chatrelay/chatrelay/core"
	"github.com/chatrelay/chatrelay/logging"
	"github.com/chatrelay/chatrelay/model"
	"github.com/chatrelay/chatrelay/model/anthropic"
	"github.com/chatrelay/chatrelay/model/gemini"
	"github.com/chatrelay/chatrelay/model/openai"
	"github.com/chatrelay/chatrelay/search"
	"github.com/chatrelay/chatrelay/tool/websearch"
)

// ModelFactory constructs a model client for a provider, identifier and
// credential. Overridable for tests.
type ModelFactory func(provider, modelID, credential string) (model.Model, error)

// SearchFactory constructs the search provider from its credential.
// Overridable for tests.
type SearchFactory func(credential string) search.Provider

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	ModelFactory  ModelFactory
	SearchFactory SearchFactory
	Logger        logging.Logger
}

// Builder assembles an immutable Agent per request from a validated model
// identifier, the allow-search flag and an optional system prompt. It does
// not re-validate the identifier against the allow-list; that happens at the
// gateway before Build is called.
type Builder struct {
	cfg           *config.Config
	modelFactory  ModelFactory
	searchFactory SearchFactory
	logger        logging.Logger
}

// NewBuilder creates a Builder over the given configuration.
func NewBuilder(cfg *config.Config, optFns ...func(o *BuilderOptions)) *Builder {
	opts := BuilderOptions{
		ModelFactory:  defaultModelFactory,
		SearchFactory: defaultSearchFactory,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Builder{
		cfg:           cfg,
		modelFactory:  opts.ModelFactory,
		searchFactory: opts.SearchFactory,
		logger:        opts.Logger,
	}
}

// Build constructs a fresh Agent. Construction is side-effect-free: client
// initialization happens here, but no network call is made before the first
// Generate.
func (b *Builder) Build(modelID string, allowSearch bool, systemPrompt string) (*Agent, error) {
	if strings.TrimSpace(modelID) == "" {
		return nil, core.ErrInvalidModel
	}

	provider := config.ProviderFor(modelID)
	credential := b.cfg.CredentialFor(provider)
	if credential == "" {
		return nil, &core.MissingCredentialError{Provider: provider}
	}

	toolSet := NoTools()
	if allowSearch {
		searchCredential := b.cfg.CredentialFor(config.ProviderTavily)
		if searchCredential == "" {
			return nil, &core.MissingCredentialError{Provider: config.ProviderTavily}
		}
		toolSet = WithTools(websearch.New(b.searchFactory(searchCredential)))
	}

	llm, err := b.modelFactory(provider, modelID, credential)
	if err != nil {
		return nil, fmt.Errorf("construct %s client: %w", provider, err)
	}

	b.logger.Debug("agent.built",
		"model", modelID,
		"provider", provider,
		"tools", len(toolSet.Tools()),
		"has_instruction", systemPrompt != "",
	)

	return New(llm, toolSet, systemPrompt), nil
}

func defaultModelFactory(provider, modelID, credential string) (model.Model, error) {
	switch provider {
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(modelID)
			o.APIKey = credential
		}), nil
	case config.ProviderGemini:
		return gemini.NewModel(func(o *gemini.Options) {
			o.Model = modelID
			o.APIKey = credential
		})
	default:
		return openai.NewModel(func(o *openai.Options) {
			o.Model = modelID
			o.APIKey = credential
		}), nil
	}
}

func defaultSearchFactory(credential string) search.Provider {
	return search.NewTavily(credential)
}
