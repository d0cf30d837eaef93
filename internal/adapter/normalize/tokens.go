package normalize

import (
	"log/slog"

	"github.com/pkoukk/tiktoken-go"

	"github.com/Burhanuddin-2001/WebMind/internal/domain"
)

const defaultEncoding = "cl100k_base"

// TiktokenCounter counts model tokens with a BPE encoding.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

var _ domain.TokenCounter = (*TiktokenCounter)(nil)

// NewTiktokenCounter creates a counter for the named encoding.
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = defaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{enc: enc}, nil
}

func (c *TiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// EstimateCounter approximates tokens as chars/4, the common rule of
// thumb for English text. Used when the BPE encoding cannot be loaded.
type EstimateCounter struct{}

var _ domain.TokenCounter = EstimateCounter{}

func (EstimateCounter) Count(text string) int {
	return (len(text) + 3) / 4
}

// NewCounter returns a tiktoken-backed counter, falling back to the
// character estimate when the encoding data is unavailable (the
// encoding is fetched on first use and may be absent offline).
func NewCounter(encoding string, logger *slog.Logger) domain.TokenCounter {
	counter, err := NewTiktokenCounter(encoding)
	if err != nil {
		logger.Warn("token encoding unavailable, using character estimate", "encoding", encoding, "error", err)
		return EstimateCounter{}
	}
	return counter
}
