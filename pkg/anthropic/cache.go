package anthropic

// CachedSystem constructs system content blocks with a cache breakpoint set
// to a 5-minute TTL. The extraction stages reuse the same system prompts for
// every document, so repeat runs hit the warm prompt cache.
func CachedSystem(text string) []SystemBlock {
	return []SystemBlock{
		{
			Text: text,
			CacheControl: &CacheControl{
				TTL: "5m",
			},
		},
	}
}
