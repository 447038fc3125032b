package detail

// CardAliasResolver maps an account or card suffix to the set of
// suffixes that should be treated as the same logical account. A
// replaced physical card keeps matching against details recorded under
// its old suffix. The zero resolver is the identity mapping.
type CardAliasResolver struct {
	aliases map[string][]string
}

// NewCardAliasResolver builds a resolver from a suffix -> aliases map,
// typically loaded from configuration. A nil map yields the identity
// resolver.
func NewCardAliasResolver(aliases map[string][]string) *CardAliasResolver {
	return &CardAliasResolver{aliases: aliases}
}

// Resolve returns the suffix itself plus any configured aliases, in a
// stable order with duplicates removed. It never mutates resolver state.
func (r *CardAliasResolver) Resolve(suffix string) []string {
	out := []string{suffix}
	if r == nil || r.aliases == nil {
		return out
	}

	seen := map[string]struct{}{suffix: {}}
	for _, alias := range r.aliases[suffix] {
		if _, ok := seen[alias]; ok || alias == "" {
			continue
		}
		seen[alias] = struct{}{}
		out = append(out, alias)
	}
	return out
}
