// Package filtering matches messages against each guild's forbidden words.
package filtering

import (
	"context"
	"fmt"
	"strings"

	goaway "github.com/TwiN/go-away"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
)

// WordSource lists the forbidden words configured for a guild.
type WordSource interface {
	DenyWords(ctx context.Context, guildID string) ([]string, error)
}

var MatchCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "coinmod_filter_matches_total",
	Help: "Messages that contained at least one forbidden word",
}, []string{"words"})

func init() {
	prometheus.MustRegister(MatchCounter)
}

type detector struct {
	word string
	*goaway.ProfanityDetector
}

// Filter keeps one detector per word so a match reports which words hit.
// Detectors are rebuilt from the source when the guild's entry expires or is
// invalidated.
type Filter struct {
	source WordSource
	cache  *cache.Cache
}

func New(source WordSource, c *cache.Cache) *Filter {
	return &Filter{source: source, cache: c}
}

func guildKey(guildID string) string {
	return "words:" + guildID
}

func (f *Filter) detectors(ctx context.Context, guildID string) ([]detector, error) {
	if cached, ok := f.cache.Get(guildKey(guildID)); ok {
		return cached.([]detector), nil
	}

	words, err := f.source.DenyWords(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("load deny words: %w", err)
	}

	detectors := make([]detector, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		detectors = append(detectors, detector{
			word:              w,
			ProfanityDetector: goaway.NewProfanityDetector().WithCustomDictionary([]string{w}, nil, nil),
		})
	}

	f.cache.SetDefault(guildKey(guildID), detectors)
	return detectors, nil
}

// Match returns the distinct forbidden words found in content, in the order
// they were configured.
func (f *Filter) Match(ctx context.Context, guildID, content string) ([]string, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	detectors, err := f.detectors(ctx, guildID)
	if err != nil {
		return nil, err
	}

	var hits []string
	for _, d := range detectors {
		if d.IsProfane(content) {
			hits = append(hits, d.word)
		}
	}
	if len(hits) > 0 {
		MatchCounter.WithLabelValues(fmt.Sprint(len(hits))).Inc()
	}
	return hits, nil
}

// Invalidate drops the cached detectors after the guild's list changed.
func (f *Filter) Invalidate(guildID string) {
	f.cache.Delete(guildKey(guildID))
}
