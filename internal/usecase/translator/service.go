package translator

import (
	"context"
	"strings"
	"sync"

	"locline/internal/domain"
	"locline/internal/ports"
)

type Deps struct {
	Build ports.ProviderBuilder
	Cache ports.CacheRepository // optional; nil disables caching
}

// Service turns one ordered batch of lines into one ordered batch of
// output lines. Output length always equals input length: a batch that
// fails keeps its original lines and the run continues.
//
// The provider is built from the run config's endpoint and credential, so
// each run talks to the endpoint it was started with.
type Service struct {
	d Deps

	mu          sync.Mutex
	provider    ports.Provider
	providerKey string
}

func New(d Deps) *Service { return &Service{d: d} }

const reminder = "\n\nREMINDER: Format 'ID:::TranslatedText'."

// providerFor returns a client for the config's endpoint. The config is
// immutable during a run, so the client is reused across batches and
// rebuilt only when the endpoint or credential changes.
func (s *Service) providerFor(cfg domain.RunConfig) ports.Provider {
	key := cfg.BaseURL + "\x00" + cfg.APIKey
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.provider == nil || s.providerKey != key {
		s.provider = s.d.Build(cfg.BaseURL, cfg.APIKey)
		s.providerKey = key
	}
	return s.provider
}

// TranslateBatch translates batch in place-order. emit (may be nil)
// receives error descriptions and, in streaming mode, incremental model
// output with append=true.
func (s *Service) TranslateBatch(ctx context.Context, batch []string, cfg domain.RunConfig, emit func(msg string, appendFlag bool)) []string {
	if emit == nil {
		emit = func(string, bool) {}
	}

	translated := map[string]string{}
	sources := map[string]string{}
	var pending []string
	for _, line := range batch {
		id, payload, ok := domain.SplitID(line)
		if !ok {
			// Bare lines carry no identifier to answer, but they stay in
			// the prompt as context for the surrounding lines.
			pending = append(pending, line)
			continue
		}
		src := strings.TrimSpace(payload)
		sources[id] = src
		if s.d.Cache != nil {
			if tr, hit, err := s.d.Cache.Get(ctx, src, cfg.Model); err == nil && hit {
				translated[id] = tr
				continue
			}
		}
		pending = append(pending, line)
	}

	if len(pending) > 0 {
		content, err := s.providerFor(cfg).Complete(ctx, ports.ChatRequest{
			Model:        cfg.Model,
			SystemPrompt: cfg.SystemPrompt,
			UserPrompt:   buildPrompt(pending),
			Temperature:  cfg.Temperature,
			MaxTokens:    cfg.MaxTokens,
			TopP:         cfg.TopP,
			TopK:         cfg.TopK,
			Stream:       cfg.Stream,
		}, func(delta string) { emit(delta, true) })
		if err != nil {
			// Fallback on total failure: the batch keeps its original lines.
			emit(err.Error(), false)
			return append([]string(nil), batch...)
		}
		requested := make(map[string]struct{}, len(pending))
		for _, line := range pending {
			if id, _, ok := domain.SplitID(line); ok {
				requested[id] = struct{}{}
			}
		}
		for id, text := range parseMapping(content) {
			if _, ok := requested[id]; !ok {
				continue // identifiers the model invented are ignored
			}
			translated[id] = text
			if s.d.Cache != nil {
				_ = s.d.Cache.Put(ctx, sources[id], cfg.Model, text)
			}
		}
	}

	out := make([]string, len(batch))
	for i, line := range batch {
		id, _, ok := domain.SplitID(line)
		if !ok {
			out[i] = line
			continue
		}
		if text, found := translated[id]; found {
			out[i] = id + domain.IDDelimiter + text
		} else {
			out[i] = line
		}
	}
	return out
}

func buildPrompt(lines []string) string {
	return strings.Join(lines, "\n") + reminder
}

// parseMapping splits the accumulated reply into identifier -> translation.
// Reply lines without the delimiter are discarded; duplicate identifiers
// resolve last-wins.
func parseMapping(content string) map[string]string {
	out := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		id, payload, ok := domain.SplitID(line)
		if !ok {
			continue
		}
		out[id] = strings.TrimSpace(payload)
	}
	return out
}
