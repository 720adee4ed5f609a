// Package structured decodes JSON documents out of unconstrained model
// output. Decoding is a two-stage pipeline: ExtractObject locates a balanced
// object span inside arbitrary prose (models habitually wrap JSON in
// markdown fences or explanatory text), then Decode/Validate parse the span
// strictly and check it against a JSON schema. Failures are always tagged
// (*ParseError or *ValidationError), never a generic catch-all, so callers
// can map each class to its deterministic fallback.
package structured
