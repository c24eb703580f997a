package config

import (
	"github.com/pelletier/go-toml/v2"
)

// TOML is a koanf.Parser backed by go-toml/v2.
type TOML struct{}

// Parser returns a TOML parser.
func Parser() *TOML {
	return &TOML{}
}

// Unmarshal parses TOML bytes into a nested map.
func (p *TOML) Unmarshal(b []byte) (map[string]any, error) {
	out := make(map[string]any)
	if err := toml.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Marshal renders a nested map as TOML.
func (p *TOML) Marshal(m map[string]any) ([]byte, error) {
	return toml.Marshal(m)
}

// defaults is loaded first so every key has a value.
const defaults = `
[chunking]
max_chunk_size = 3000
overlap_size = 200

[retrieval]
k = 5
fanout = 2
lexical_weight = 0.5
semantic_weight = 0.5

[embedding]
provider = "local"
model = "hashing-384"
concurrency = 4
cache_size = 1024

[llm]
provider = "ollama"
model = "llama3.2"

[answer]
timeout = "120s"
context_budget = 12000
max_turns = 0
max_history_chars = 8000

[source]
max_file_size = 1048576
`
